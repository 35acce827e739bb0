package main

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"cropview/selection"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

//go:embed static
var staticFS embed.FS
var isDebug = os.Getenv("DEBUG") == "1"

const sessionCookie = "cv_session"

type Config struct {
	MaxUploadBytes   int64
	KeepSources      bool
	Port             int
	Store            *SessionStore
	Cropper          Cropper
	OnBeforeShutdown func()
	OnReady          func(addr string)
}

type WebApp struct {
	config       Config
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config Config) *WebApp {
	return &WebApp{
		config:     config,
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

// cropRequest is the commit payload: the display-space selection plus the
// frame it was made in. The server owns the display-to-source mapping so the
// crop is computed against the same geometry the tests cover.
type cropRequest struct {
	Filename string                 `json:"filename"`
	Rect     selection.Rect         `json:"rect"`
	Frame    selection.DisplayFrame `json:"frame"`
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := a.router()

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", a.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// router builds the fiber app with all routes registered. Split out of Run
// so handler tests can drive it through app.Test.
func (a *WebApp) router() *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		BodyLimit:             int(a.config.MaxUploadBytes) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Ctx(c.Context()).Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("Request failed")
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
					return nil
				}
				return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
	})

	webapp.Use("/api", a.withSession)

	webapp.Post("/api/upload", a.handleUpload)
	webapp.Get("/api/view", a.handleView)
	webapp.Post("/api/crop", a.handleCrop)
	webapp.Post("/api/reset", a.handleReset)
	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if isDebug {
		log.Debug().Msg("Debug mode enabled, serving static files from './static' directory")
		webapp.Static("/", "static")
	} else {
		log.Debug().Msg("Serving static files from embedded filesystem")
		webapp.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "/static",
		}))
	}

	return webapp
}

// withSession assigns a session cookie on first contact and marks the
// session active on every API call.
func (a *WebApp) withSession(c *fiber.Ctx) error {
	id := c.Cookies(sessionCookie)
	if id == "" {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(sessionCookie, id)
	a.config.Store.Touch(id)
	return c.Next()
}

func (a *WebApp) sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionCookie).(string)
	return id
}

func (a *WebApp) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "no image file provided")
	}
	if header.Size > a.config.MaxUploadBytes {
		return fiber.NewError(http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d byte upload limit", a.config.MaxUploadBytes))
	}
	mimeType := header.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(mimeType, "image/") {
		return fiber.NewError(http.StatusBadRequest, "only image uploads are accepted")
	}

	width, height, err := readImageDimensions(header)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "file is not a decodable image")
	}

	id := uuid.NewString()
	filename := id + strings.ToLower(filepath.Ext(header.Filename))
	if err := c.SaveFile(header, a.config.Store.Path(filename)); err != nil {
		return fmt.Errorf("failed to save upload: %w", err)
	}

	file := StoredFile{
		ID:           id,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		Width:        width,
		Height:       height,
	}
	a.config.Store.Attach(c.Context(), a.sessionID(c), file)

	log.Ctx(c.Context()).Info().
		Str("filename", filename).
		Str("original", header.Filename).
		Int64("size", header.Size).
		Msg("stored upload")

	return c.JSON(file)
}

func (a *WebApp) handleView(c *fiber.Ctx) error {
	filename := c.Query("file")
	file, ok := a.config.Store.Lookup(a.sessionID(c), filename)
	if !ok {
		return fiber.NewError(http.StatusNotFound, "unknown file")
	}
	return c.SendFile(a.config.Store.Path(file.Filename))
}

func (a *WebApp) handleCrop(c *fiber.Ctx) error {
	var req cropRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "malformed crop request")
	}

	if req.Rect.Empty() {
		return fiber.NewError(http.StatusUnprocessableEntity, "selection is empty")
	}

	rect, err := selection.MapToSource(req.Rect, req.Frame)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "image is not laid out yet")
	}

	file, ok := a.config.Store.Lookup(a.sessionID(c), req.Filename)
	if !ok {
		return fiber.NewError(http.StatusNotFound, "unknown file")
	}

	// Rounding may overshoot the natural bounds by a pixel; trim against the
	// dimensions recorded at upload before touching the pixels.
	rect = rect.ClampTo(file.Width, file.Height)
	if rect.Empty() {
		return fiber.NewError(http.StatusUnprocessableEntity, "selection maps to an empty region")
	}

	src, err := os.Open(a.config.Store.Path(file.Filename))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "stored file no longer exists")
	}
	defer src.Close()

	var buf bytes.Buffer
	if err := a.config.Cropper.Crop(c.Context(), src, &buf, rect); err != nil {
		return fmt.Errorf("failed to crop %s: %w", file.Filename, err)
	}

	log.Ctx(c.Context()).Info().
		Str("filename", file.Filename).
		Int("x", rect.X).Int("y", rect.Y).
		Int("width", rect.Width).Int("height", rect.Height).
		Msg("cropped")

	if !a.config.KeepSources {
		a.config.Store.Retire(c.Context(), a.sessionID(c))
	}

	downloadName := strings.TrimSuffix(file.OriginalName, filepath.Ext(file.OriginalName)) + "-cropped.png"
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", downloadName))
	return c.Send(buf.Bytes())
}

func (a *WebApp) handleReset(c *fiber.Ctx) error {
	a.config.Store.Retire(c.Context(), a.sessionID(c))
	return c.SendStatus(http.StatusNoContent)
}

// readImageDimensions decodes just the image header for its natural size.
func readImageDimensions(header *multipart.FileHeader) (width, height int, err error) {
	f, err := header.Open()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
