package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/stakeq/stakeq/internal/db"
	"github.com/stakeq/stakeq/internal/models"
)

// GET /qr/{id}.png — QR code pointing a stakeholder at the chat view for a
// questionnaire. Handy for printing on invitation letters.
func QR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	var qn models.Questionnaire
	if err := db.Conn().First(&qn, "id = ?", id).Error; err != nil {
		http.NotFound(w, r)
		return
	}

	// Encode a URL so scanning opens the chat view directly.
	url := "http://" + r.Host + "/chat?questionnaire=" + qn.ID

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
