// Package pagination walks the offset-based pages of the Narou API.
//
// The API returns at most 500 novels per request and accepts a start offset
// (st) up to 2000, so an export is a fixed sequence of requests:
// st=1, 501, 1001, 1501. Pages are fetched strictly one after another.
//
// Example usage:
//
//	p := pagination.NewPaginator(apiClient, pagination.DefaultConfig())
//	summary, err := p.Run(ctx, func(offset int, data []byte) error {
//		// decode and filter the page
//		return nil
//	})
//
// The paginator:
//   - Fetches each offset once, in ascending order
//   - Logs and skips pages whose fetch or handler fails
//   - Stops early only when the context is cancelled
package pagination
