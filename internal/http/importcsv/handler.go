// Package importcsv accepts tabular uploads and replays every row through
// the same create/update path manual entry uses, so validation and
// id-assignment rules hold for imported data too.
package importcsv

import (
	"errors"
	"net/http"

	"github.com/storycreative/ledger/internal/auth"
	"github.com/storycreative/ledger/internal/export"
	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/ledger"
)

type Handler struct {
	store         ledger.Backend
	invoicePrefix string
}

func NewHandler(store ledger.Backend, invoicePrefix string) *Handler {
	return &Handler{store: store, invoicePrefix: invoicePrefix}
}

type skippedDTO struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type importResponse struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Skipped []skippedDTO `json:"skipped"`
}

// Import parses the uploaded file and applies it on behalf of the session
// user, so role checks apply exactly as they would client-side.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.Error(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	rows, err := export.Parse(file)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	l := ledger.New(h.store, u, h.invoicePrefix)
	if err := l.Load(r.Context()); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load data")
		return
	}

	result, err := export.Apply(r.Context(), l, rows)
	if err != nil {
		var perr *ledger.PermissionError
		if errors.As(err, &perr) {
			respond.Error(w, http.StatusForbidden, perr.Error())
			return
		}

		respond.Error(w, http.StatusInternalServerError, err.Error())

		return
	}

	resp := importResponse{
		Created: result.Created,
		Updated: result.Updated,
		Skipped: make([]skippedDTO, 0, len(result.Skipped)),
	}

	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{Row: s.Row, Error: s.Err.Error()})
	}

	respond.JSON(w, http.StatusOK, resp)
}
