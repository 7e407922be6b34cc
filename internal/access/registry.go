package access

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/tohfas/RAG-Access-Control/internal/pkg/errors"
)

// Registry resolves a user to the ordered list of document references that
// user is allowed to query. The backing JSON store is re-read on every call so
// that out-of-band edits take effect on the next query; there is no cache and
// no locking, a concurrent edit simply wins or loses the read race.
type Registry struct {
	path string
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Resolve returns the user's permitted document references in store order.
// An unknown user gets an empty list, not an error; a missing or unparsable
// store is fatal for the request.
func (r *Registry) Resolve(ctx context.Context, user string) ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read access store %s: %v", appErr.ErrConfiguration, r.path, err)
	}
	var store map[string][]string
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("%w: decode access store %s: %v", appErr.ErrConfiguration, r.path, err)
	}
	refs := store[user]
	logutil.GetLogger(ctx).Debug("resolved user access",
		zap.String("user", user),
		zap.Int("documents", len(refs)),
	)
	return refs, nil
}
