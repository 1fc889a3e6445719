package migration

import (
	"encoding/json"
	"slices"

	"go.trai.ch/wdlcache/internal/adapters/store"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/zerr"
)

// File describes the cache file a step is applied to.
type File struct {
	Name       string
	Compressed bool
}

// Step is one migration between two adjacent format versions.
type Step struct {
	Info  domain.MigrationStepInfo
	apply func(raw []byte, file File) ([]byte, error)
}

// Apply transforms the raw JSON content of file.
func (s Step) Apply(raw []byte, file File) ([]byte, error) {
	return s.apply(raw, file)
}

// NewStep builds a Step from a typed transform. The step decodes the input as
// From, requires it to declare exactly the from version, validates it, runs fn,
// validates the result and encodes it.
func NewStep[From, To Schema](from, to, description string, fn func(From, File) (To, error)) Step {
	return Step{
		Info: domain.MigrationStepInfo{From: from, To: to, Description: description},
		apply: func(raw []byte, file File) ([]byte, error) {
			var in From
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidSchema.Error()), "version", from)
			}
			if got := in.FormatVersion(); got != from {
				return nil, zerr.With(zerr.With(domain.ErrVersionMismatch, "want", from), "got", got)
			}
			if err := in.Validate(); err != nil {
				return nil, err
			}

			out, err := fn(in, file)
			if err != nil {
				return nil, err
			}
			if err := out.Validate(); err != nil {
				return nil, err
			}

			data, err := json.Marshal(out)
			if err != nil {
				return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
			}
			return data, nil
		},
	}
}

// DefaultSteps returns the built-in step table ordered by source version.
func DefaultSteps() []Step {
	return []Step{
		NewStep(Version0_9, Version1_0, "replace the keyed entry map with a metadata header and entry list", upgrade0_9),
		NewStep(Version1_0, Version1_1, "add per-entry and header checksums, compression kind and total size", upgrade1_0),
	}
}

func sortSteps(steps []Step) []Step {
	out := slices.Clone(steps)
	slices.SortStableFunc(out, func(a, b Step) int {
		return domain.CompareVersions(a.Info.From, b.Info.From)
	})
	return out
}

func upgrade0_9(in V0_9, _ File) (V1_0, error) {
	keys := make([]string, 0, len(in.Entries))
	for key := range in.Entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := V1_0{
		Metadata: V1_0Metadata{
			FormatVersion: Version1_0,
			WrittenAt:     in.Timestamp,
			EntryCount:    len(keys),
		},
		Entries: make([]V1_0Entry, 0, len(keys)),
	}
	for _, key := range keys {
		e := in.Entries[key]
		out.Entries = append(out.Entries, V1_0Entry{Key: key, Payload: e.Data, WrittenAt: e.Timestamp})
	}
	return out, nil
}

func upgrade1_0(in V1_0, file File) (V1_1, error) {
	kind := domain.CompressionNone
	if file.Compressed {
		kind = domain.CompressionGzip
	}

	out := V1_1{
		Metadata: domain.StoreMetadata{
			FormatVersion:   Version1_1,
			WrittenAt:       in.Metadata.WrittenAt,
			CompressionKind: kind,
			EntryCount:      len(in.Entries),
		},
		Entries: make([]domain.PersistedEntry, 0, len(in.Entries)),
	}
	for _, e := range in.Entries {
		out.Entries = append(out.Entries, domain.PersistedEntry{
			Key:       e.Key,
			Payload:   e.Payload,
			WrittenAt: e.WrittenAt,
			Checksum:  store.Checksum(e.Payload),
		})
		out.Metadata.TotalBytes += int64(len(e.Payload))
	}
	out.Metadata.Checksum = store.HeaderChecksum(out.Entries)
	return out, nil
}
