package backup

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	uploader *DriveUploader
}

func NewHandler(uploader *DriveUploader) *Handler {
	return &Handler{uploader: uploader}
}

// SyncNow dumps the database with pg_dump and uploads it to Google Drive.
// The dump runs synchronously; backups are an explicit operator action.
func (h *Handler) SyncNow(c *gin.Context) {
	if !h.uploader.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Drive backup is not configured"})
		return
	}

	dump, err := runPgDump(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("pg_dump failed: %v", err)})
		return
	}

	name := fmt.Sprintf("mostrador-%s.sql", time.Now().Format("20060102-150405"))
	fileID, err := h.uploader.Upload(c.Request.Context(), name, bytes.NewReader(dump))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Upload failed: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"file_name": name,
		"file_id":   fileID,
		"size":      len(dump),
	}})
}

func runPgDump(c *gin.Context) ([]byte, error) {
	var args []string
	if url := os.Getenv("DATABASE_URL"); url != "" {
		args = []string{"--dbname", url}
	} else {
		args = []string{
			"--host", envOr("DB_HOST", "localhost"),
			"--port", envOr("DB_PORT", "5432"),
			"--username", envOr("DB_USER", "postgres"),
			"--dbname", envOr("DB_NAME", "mostrador"),
		}
	}

	cmd := exec.CommandContext(c.Request.Context(), "pg_dump", args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+os.Getenv("DB_PASSWORD"))

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
