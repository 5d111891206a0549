package processing

import (
	"time"

	"github.com/menta2k/photo-editor/internal/utils"
	"github.com/menta2k/photo-editor/pkg/types"
)

var now = time.Now

// ExportFilename returns the download name for an export made at t,
// e.g. edited-image-1700000000000.png
func ExportFilename(t time.Time, format types.Format) string {
	return utils.GenerateExportFilename("edited-image", t, format.Extension())
}
