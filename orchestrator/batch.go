package orchestrator

import "context"

// Query is one entry of a multi-index, multi-query request
// (`/1/indexes/*/queries`, a supplemented feature not present in the
// distilled spec but implemented by the original server).
type Query struct {
	IndexName string
	Params    RequestParams
}

// SearchMany runs each query against its own index in sequence, the way the
// original server's `multi_query_search` handler does: no cross-query
// sharing of facets or ranking, just a fan-out and a response-array
// assembly.
func (o *Orchestrator) SearchMany(ctx context.Context, queries []Query, secured *SecuredKeyRestriction) ([]*Response, error) {
	out := make([]*Response, 0, len(queries))
	for _, q := range queries {
		resp, err := o.Search(ctx, q.IndexName, q.Params, secured)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}
