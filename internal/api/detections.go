package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/solarlens/internal/db"
	"github.com/banshee-data/solarlens/internal/httputil"
	"github.com/banshee-data/solarlens/internal/plots"
	"github.com/banshee-data/solarlens/internal/security"
)

// listDetections returns the latest runs, newest first.
// Query params:
//
//	limit (optional, default 100)
//	detected (optional, "true" to return only detections)
func (s *Server) listDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	filter := db.ListFilter{Limit: db.DefaultListLimit}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > MaxListLimit {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		filter.Limit = limit
	}
	if d := r.URL.Query().Get("detected"); d != "" {
		detected, err := strconv.ParseBool(d)
		if err != nil {
			httputil.BadRequest(w, "Invalid 'detected' parameter")
			return
		}
		filter.DetectedOnly = detected
	}

	runs, err := s.store.List(filter)
	if err != nil {
		httputil.InternalServerError(w, "Failed to retrieve detections", err)
		return
	}
	if runs == nil {
		runs = []*db.DetectionRun{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// detectionRoutes dispatches /detections/{id} and its artefacts.
func (s *Server) detectionRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/detections/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		httputil.NotFound(w, "Not found")
		return
	}

	run, err := s.store.Get(parts[0])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, "Detection run not found")
			return
		}
		httputil.InternalServerError(w, "Failed to retrieve detection", err)
		return
	}

	if len(parts) == 1 {
		httputil.WriteJSON(w, http.StatusOK, run)
		return
	}

	switch parts[1] {
	case "spectrum.html":
		s.spectrumHTML(w, run)
	case "spectrum.png":
		s.spectrumPNG(w, run)
	case "image.png":
		s.imagePNG(w, run)
	default:
		httputil.NotFound(w, "Not found")
	}
}

func runTitle(run *db.DetectionRun) string {
	title := "Run " + run.RunID
	if run.Label != "" {
		title = run.Label + " (" + run.RunID + ")"
	}
	return title
}

func runSubtitle(run *db.DetectionRun) string {
	when := time.Unix(0, run.CreatedAt).UTC().Format(time.RFC3339)
	if !run.Planet.Detected {
		return fmt.Sprintf("%s, no detection (SNR %.2f)", when, run.SNR)
	}
	return fmt.Sprintf("%s, SNR %.2f, T %.0f K, biosignature %.1f",
		when, run.SNR, run.Planet.TemperatureK, run.Planet.Atmosphere.BiosignatureScore)
}

func (s *Server) spectrumHTML(w http.ResponseWriter, run *db.DetectionRun) {
	spec, scale, ok, err := run.Spectrum()
	if err != nil {
		httputil.InternalServerError(w, "Failed to decode spectrum", err)
		return
	}
	if !ok {
		httputil.NotFound(w, "Run has no spectrum")
		return
	}
	var buf bytes.Buffer
	if err := plots.RenderSpectrumHTML(&buf, spec, scale, runTitle(run), runSubtitle(run)); err != nil {
		httputil.InternalServerError(w, "Failed to render chart", err)
		return
	}
	s.writeBody(w, run, "text/html; charset=utf-8", "", buf.Bytes())
}

func (s *Server) spectrumPNG(w http.ResponseWriter, run *db.DetectionRun) {
	spec, scale, ok, err := run.Spectrum()
	if err != nil {
		httputil.InternalServerError(w, "Failed to decode spectrum", err)
		return
	}
	if !ok {
		httputil.NotFound(w, "Run has no spectrum")
		return
	}
	var buf bytes.Buffer
	if err := plots.SpectrumPNG(&buf, spec, scale, runTitle(run)); err != nil {
		httputil.InternalServerError(w, "Failed to plot spectrum", err)
		return
	}
	s.writeBody(w, run, "image/png", artefactName(run, "spectrum.png"), buf.Bytes())
}

func (s *Server) imagePNG(w http.ResponseWriter, run *db.DetectionRun) {
	img, err := run.Image()
	if err != nil {
		httputil.InternalServerError(w, "Failed to decode image", err)
		return
	}
	if img == nil {
		httputil.NotFound(w, "Run has no processed image")
		return
	}
	var buf bytes.Buffer
	if err := plots.ImageHeatmapPNG(&buf, img, runTitle(run)); err != nil {
		httputil.InternalServerError(w, "Failed to plot image", err)
		return
	}
	s.writeBody(w, run, "image/png", artefactName(run, "image.png"), buf.Bytes())
}

// artefactName is the download name of a rendered file, prefixed with the
// run label when there is one.
func artefactName(run *db.DetectionRun, suffix string) string {
	base := run.RunID
	if run.Label != "" {
		base = run.Label
	}
	return security.SanitizeFilename(base) + "-" + suffix
}

func (s *Server) writeBody(w http.ResponseWriter, run *db.DetectionRun, contentType, filename string, body []byte) {
	if err := httputil.WriteBody(w, contentType, filename, body); err != nil {
		s.log.Warn().Err(err).Str("run_id", run.RunID).Msg("failed to write response body")
	}
}
