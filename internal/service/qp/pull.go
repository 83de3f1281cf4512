package qp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultPullTimeout  = 180 * time.Second
)

// Resolver resolves the per-platform identifiers of a remote entity, either
// from the store or by polling the aggregation API until every requested
// platform reports one.
type Resolver struct {
	client       *Client
	store        IdentifierStore
	logger       *zap.Logger
	pollInterval time.Duration
	pullTimeout  time.Duration
}

func NewResolver(client *Client, store IdentifierStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		client:       client,
		store:        store,
		logger:       logger,
		pollInterval: defaultPollInterval,
		pullTimeout:  defaultPullTimeout,
	}
}

// WithTiming overrides the poll interval and overall ceiling; zero values
// keep the current setting.
func (r *Resolver) WithTiming(pollInterval, pullTimeout time.Duration) *Resolver {
	if pollInterval > 0 {
		r.pollInterval = pollInterval
	}
	if pullTimeout > 0 {
		r.pullTimeout = pullTimeout
	}
	return r
}

// Resolve returns the platform identifier bag for (entity, qpID).
//
// A zero qpID means the entity was never created remotely and yields an
// empty bag without touching the store or the API. A store hit returns
// immediately. When the bag is absent and skipIfAbsent is set, the caller
// accepts unresolved identifiers and gets an empty bag. Otherwise the API is
// polled until every requested platform reports an identifier or the ceiling
// elapses.
func (r *Resolver) Resolve(ctx context.Context, entity Entity, platforms []string, qpID int64, skipIfAbsent bool) (IdentifierBag, error) {
	if qpID == 0 {
		return IdentifierBag{}, nil
	}

	bag, found, err := r.store.Get(ctx, entity, qpID)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier store: %w", err)
	}
	if found {
		return bag, nil
	}

	if skipIfAbsent {
		return IdentifierBag{}, nil
	}

	bag, err = r.pull(ctx, entity, platforms, qpID)
	if err != nil {
		return nil, err
	}

	if err := r.store.Put(ctx, entity, qpID, bag); err != nil {
		return nil, fmt.Errorf("failed to cache identifiers: %w", err)
	}

	return bag, nil
}

// pull polls the entity read endpoint until every platform's identifier path
// is populated. A missing path is "not yet available", not an error; an API
// failure aborts immediately.
func (r *Resolver) pull(ctx context.Context, entity Entity, platforms []string, qpID int64) (IdentifierBag, error) {
	route, ok := pullRoutes[entity]
	if !ok {
		return nil, fmt.Errorf("no pull route for entity %s", entity)
	}

	start := time.Now()
	for {
		elapsed := time.Since(start)
		r.logger.Info("Pulling platform identifiers",
			zap.String("entity", string(entity)),
			zap.Int64("qp_id", qpID),
			zap.Duration("elapsed", elapsed))

		if elapsed > r.pullTimeout {
			return nil, ErrResolutionTimeout
		}

		data, err := r.client.Fetch(ctx, fmt.Sprintf(route.path, qpID))
		if err != nil {
			return nil, err
		}

		bag := make(IdentifierBag, len(platforms))
		complete := true
		for _, platform := range platforms {
			identifier := nestedString(data, route.identifierPaths[platform])
			if identifier == "" {
				complete = false
				break
			}
			bag[platform] = identifier
		}
		if complete {
			return bag, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}
}

// nestedString walks a dotted path through nested JSON objects and renders
// the leaf as a string. Any missing segment yields "".
func nestedString(obj map[string]any, path string) string {
	if path == "" {
		return ""
	}

	var current any = obj
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = node[key]
	}

	switch v := current.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
