package movement

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cefe-herrera/copilot-finance-back/internal/scanning"
)

// maxTicketSize caps uploads at 50MB to handle high-resolution phone photos
const maxTicketSize = int64(50 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// readTicketForm pulls the uploaded file, its content type and the
// optional quality hint out of a multipart request. A nil header in
// the return signals that an error response was already written.
func readTicketForm(w http.ResponseWriter, r *http.Request) ([]byte, *multipart.FileHeader, string, scanning.Quality) {
	if err := r.ParseMultipartForm(maxTicketSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return nil, nil, "", ""
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return nil, nil, "", ""
	}
	defer f.Close()

	if header.Size > maxTicketSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return nil, nil, "", ""
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, nil, "", ""
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	quality := scanning.ParseQuality(r.FormValue("quality"))

	return data, header, contentType, quality
}

// contentTypeFromExt guesses a MIME type from the file extension when
// the client did not send one
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleUploadTicket stores a ticket, scans it and persists the movement
func (s *Server) handleUploadTicket(w http.ResponseWriter, r *http.Request) {
	data, header, contentType, quality := readTicketForm(w, r)
	if header == nil {
		return
	}

	movement, err := s.service.ProcessTicket(header.Filename, data, contentType, quality)
	if err != nil {
		slog.Error("Error processing ticket", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(movement); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleExtractTicket scans a ticket without saving anything
func (s *Server) handleExtractTicket(w http.ResponseWriter, r *http.Request) {
	data, header, contentType, quality := readTicketForm(w, r)
	if header == nil {
		return
	}

	extracted, err := s.service.ExtractTicket(data, contentType, quality)
	if err != nil {
		slog.Error("Error extracting ticket", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(extracted); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListMovements returns a list of all movements
func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := s.service.ListMovements()
	if err != nil {
		slog.Error("Error listing movements", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movements); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetMovement returns a single movement
func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Movement ID required", http.StatusBadRequest)
		return
	}
	movement, err := s.service.GetMovement(id)
	if err != nil {
		corsError(w, "Movement not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movement); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetTicketFile returns the stored ticket file for a movement
func (s *Server) handleGetTicketFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Movement ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetTicketFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteMovement deletes a movement
func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Movement ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteMovement(id); err != nil {
		corsError(w, "Error deleting movement", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMonthlySummary returns the per-category totals for one month
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		jsonError(w, "month query parameter required (YYYY-MM)", http.StatusBadRequest)
		return
	}

	summary, err := s.service.MonthlySummary(month)
	if err != nil {
		slog.Error("Error building monthly summary", "month", month, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
