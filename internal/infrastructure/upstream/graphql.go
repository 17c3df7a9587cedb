package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"streamgate/internal/core/ports"
)

// GraphQL posts operations to the upstream GraphQL endpoint with the
// configured client identity header. A breaker in front of the endpoint
// stops hammering the gateway once it starts failing consistently.
type GraphQL struct {
	fetcher  ports.Fetcher
	endpoint string
	clientID string
	breaker  *Breaker
}

func NewGraphQL(fetcher ports.Fetcher, endpoint, clientID string) *GraphQL {
	return &GraphQL{
		fetcher:  fetcher,
		endpoint: endpoint,
		clientID: clientID,
		breaker:  NewBreaker(5, 30*time.Second),
	}
}

// Query posts the payload and returns the raw response body. Non-200
// statuses are errors; GraphQL-level errors are left to the caller, which
// knows which ones are retryable.
func (g *GraphQL) Query(ctx context.Context, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql payload: %w", err)
	}

	header := http.Header{}
	header.Set("Client-ID", g.clientID)
	header.Set("Content-Type", "application/json")

	var out []byte
	err = g.breaker.Do(func() error {
		res, err := g.fetcher.Fetch(ctx, http.MethodPost, g.endpoint, header, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if res.Status != http.StatusOK {
			return fmt.Errorf("graphql endpoint returned status %d", res.Status)
		}
		out = res.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
