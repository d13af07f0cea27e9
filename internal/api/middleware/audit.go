package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxAuditBody = 16 << 10

// cappedBuffer 超过上限的部分直接丢弃
type cappedBuffer struct {
	bytes.Buffer
}

func (b *cappedBuffer) keep(p []byte) {
	if room := maxAuditBody - b.Len(); room > 0 {
		b.Write(p[:min(len(p), room)])
	}
}

type auditWriter struct {
	gin.ResponseWriter
	body cappedBuffer
}

func (w *auditWriter) Write(p []byte) (int, error) {
	w.body.keep(p)
	return w.ResponseWriter.Write(p)
}

func (w *auditWriter) WriteString(s string) (int, error) {
	w.body.keep([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

// AuditMiddleware 记录请求与响应内容，上传文件与探活请求不记录正文
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAudit(c.Request.URL.Path) {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		var reqBody cappedBuffer
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			reqBody.keep(raw)
		}

		query, err := url.QueryUnescape(c.Request.URL.RawQuery)
		if err != nil {
			query = c.Request.URL.RawQuery
		}
		log.InfoContext(ctx, "Recv Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", query,
			"req_body", reqBody.String(),
		)

		w := &auditWriter{ResponseWriter: c.Writer}
		c.Writer = w
		start := time.Now()

		c.Next()

		log.InfoContext(ctx, "Send Response",
			"status", w.Status(),
			"user_id", c.GetString(UserIDKey),
			"latency", time.Since(start),
			"res_body", w.body.String(),
		)
	}
}

func skipAudit(path string) bool {
	return path == "/metrics" || path == "/api/ping"
}
