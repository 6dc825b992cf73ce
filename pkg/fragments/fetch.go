package fragments

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// GetFragmentDataAll fetches the content of every fragment in ids
// concurrently. results[i] always belongs to ids[i], regardless of the order
// in which responses arrive. Failures are collected in input order into a
// *multierror.Error; the content of the fragments that succeeded is still
// returned.
func (c *Client) GetFragmentDataAll(ctx context.Context, ids []string) ([][]byte, error) {
	results := make([][]byte, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			data, err := c.GetFragmentData(gctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("fragment %q: %w", id, err)
				// Keep going; one failed fragment shouldn't cancel the rest.
				return nil
			}
			results[i] = data
			return nil
		})
	}
	_ = g.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		c.logger.Debug("joint fetch finished with errors", "ids", len(ids), "failed", result.Len())
	}

	return results, result.ErrorOrNil()
}
