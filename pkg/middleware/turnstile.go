package middleware

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/pkg/response"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type TurnstileConfig struct {
	Enabled   bool
	Secret    string
	VerifyURL string // defaults to Cloudflare's siteverify endpoint
	Client    *http.Client
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileMiddleware checks the TurnstileToken header against Cloudflare
// before letting the request through. It does nothing when disabled.
func NewTurnstileMiddleware(cfg TurnstileConfig) gin.HandlerFunc {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = turnstileVerifyURL
	}

	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		token := c.GetHeader("TurnstileToken")
		if token == "" {
			response.Error(c, apperr.Validation("TurnstileToken", "missing turnstile token"))
			return
		}

		form := url.Values{
			"secret":   {cfg.Secret},
			"response": {token},
			"remoteip": {c.ClientIP()},
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, cfg.VerifyURL, strings.NewReader(form.Encode()))
		if err != nil {
			response.Error(c, err)
			return
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := cfg.Client.Do(req)
		if err != nil {
			response.Error(c, apperr.Unavailable("bot check unavailable", err))
			return
		}
		defer resp.Body.Close()

		var res turnstileResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			response.Error(c, apperr.Unavailable("bot check unavailable", err))
			return
		}

		if !res.Success {
			zap.L().Debug("Turnstile check failed", zap.Strings("codes", res.ErrorCodes), zap.String("requestID", c.GetString("requestID")))
			response.Error(c, apperr.Forbidden("bot check failed"))
			return
		}

		c.Next()
	}
}
