package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/adapters/file"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/exchange"
)

// ReadFlow decodes a flow file, picking the format from its extension.
func ReadFlow(path string) (domain.FlowData, error) {
	format, err := exchange.FormatFromPath(path)
	if err != nil {
		return domain.FlowData{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FlowData{}, fmt.Errorf("failed to read flow: %w", err)
	}
	return exchange.Decode(data, format)
}

// LoadInto imports the flow file at path into the editor, or loads the stored flow
// when path is empty.
func LoadInto(ctx context.Context, editor *cardflow.Editor, path string) error {
	if path == "" {
		return editor.Load(ctx)
	}
	format, err := exchange.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read flow: %w", err)
	}
	return editor.Import(ctx, data, format)
}

// WriteOutput writes data to path atomically, or to stdout when path is empty or "-".
func WriteOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return file.WriteAtomic(path, data)
}
