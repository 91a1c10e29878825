package persist

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"daybook/internal/storage"
)

// Load decodes the value stored under key into v. It reports false when
// the key is missing or its value cannot be read or decoded; such entries
// are logged and treated as absent. After a false return the contents of v
// are unspecified, so callers decode into a scratch value.
func Load(ctx context.Context, kv storage.KV, key string, v any, log *zap.SugaredLogger) bool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	data, found, err := kv.Get(ctx, key)
	if err != nil {
		log.Warnw("store read failed, starting empty", "key", key, "error", err)
		return false
	}
	if !found || len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warnw("stored value unreadable, starting empty", "key", key, "error", err)
		return false
	}
	return true
}
