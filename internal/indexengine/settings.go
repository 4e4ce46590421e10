package indexengine

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/rowdex/rowdex/internal/model"
)

// GetSettings returns the index's current settings, defaulting to
// model.NewIndexSettings() if SetSettings was never called.
func GetSettings(r *RTxn) (model.IndexSettings, error) {
	b := r.tx.Bucket(bucketSettings)
	raw := b.Get(settingsKey)
	if raw == nil {
		return model.NewIndexSettings(), nil
	}
	var s model.IndexSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.IndexSettings{}, fmt.Errorf("rowdex: indexengine: decode settings: %w", err)
	}
	return s, nil
}

// SetSettings stores s, replacing whatever was there. Callers are
// responsible for re-indexing existing
// documents if a change affects tokenization (e.g. a new stop word) —
// the façade itself only persists the record.
func SetSettings(w *WTxn, s model.IndexSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("rowdex: indexengine: encode settings: %w", err)
	}
	b := w.tx.Bucket(bucketSettings)
	if err := b.Put(settingsKey, raw); err != nil {
		return err
	}
	w.idx.settingsMu.Lock()
	w.idx.settings = s.Clone()
	w.idx.hasSettings = true
	w.idx.settingsMu.Unlock()
	return nil
}

// cachedSettings returns the in-memory settings cache, populating it from
// the given read transaction on first use. Used by the search path so a
// hot query doesn't re-decode settings JSON on every call.
func cachedSettings(idx *Index, tx *bbolt.Tx) (model.IndexSettings, error) {
	idx.settingsMu.RLock()
	if idx.hasSettings {
		s := idx.settings
		idx.settingsMu.RUnlock()
		return s, nil
	}
	idx.settingsMu.RUnlock()

	b := tx.Bucket(bucketSettings)
	raw := b.Get(settingsKey)
	s := model.NewIndexSettings()
	if raw != nil {
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.IndexSettings{}, fmt.Errorf("rowdex: indexengine: decode settings: %w", err)
		}
	}
	idx.settingsMu.Lock()
	idx.settings = s
	idx.hasSettings = true
	idx.settingsMu.Unlock()
	return s, nil
}
