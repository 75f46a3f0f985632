// Package distio persists and loads Distribution and Run files.
// Distribution files use the self-describing MessagePack binary format,
// matching the original tool's RustMessagePack-on-disk convention; Run
// batches are plain JSON arrays, matching the original tool's
// serde_json encoding.
//
// Grounded on original_source/src/bin/build_distribution.rs's
// save_to_rmp for the Distribution format (reimplemented against
// gopkg.in/vmihailenco/msgpack.v2, the msgpack library the retrieval
// pack's manifests carry), and original_source/src/bin/cja.rs's
// serde_json::to_string / calculate_probabilities.rs's
// serde_json::from_str for the Run-batch format.
package distio

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/rawblock/coinjoin-unlinkability/pkg/models"
)

// WriteDistribution serializes dist to path as MessagePack, refusing to
// overwrite an existing file the way the original tool's save_to_rmp
// does (O_CREATE|O_EXCL).
func WriteDistribution(path string, dist models.Distribution) error {
	if err := dist.Validate(); err != nil {
		return fmt.Errorf("distio: refusing to write invalid distribution: %w", err)
	}
	data, err := msgpack.Marshal(dist)
	if err != nil {
		return fmt.Errorf("distio: marshal distribution: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("distio: open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("distio: write %s: %w", path, err)
	}
	return nil
}

// ReadDistribution loads a MessagePack-encoded Distribution from path.
func ReadDistribution(path string) (models.Distribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Distribution{}, fmt.Errorf("distio: read %s: %w", path, err)
	}
	var dist models.Distribution
	if err := msgpack.Unmarshal(data, &dist); err != nil {
		return models.Distribution{}, fmt.Errorf("distio: unmarshal %s: %w", path, err)
	}
	if err := dist.Validate(); err != nil {
		return models.Distribution{}, fmt.Errorf("distio: %s failed validation: %w", path, err)
	}
	return dist, nil
}

// WriteRuns serializes a batch of Run records to path as a JSON array —
// the format the probability-reporting stage reads back in.
func WriteRuns(path string, runs []models.Run) error {
	data, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("distio: marshal runs: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRuns loads a batch of Run records from path.
func ReadRuns(path string) ([]models.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("distio: read %s: %w", path, err)
	}
	var runs []models.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("distio: unmarshal %s: %w", path, err)
	}
	return runs, nil
}
