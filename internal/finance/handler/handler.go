// Package handler exposes the finance resources over HTTP. It stays thin:
// decode, hand to the service, translate errors into the shared envelope.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"seiwa/internal/finance/models"
	"seiwa/internal/finance/service"
	"seiwa/internal/finance/store"
	"seiwa/internal/platform/middleware"
	"seiwa/internal/transport/http/shared"
	dErrors "seiwa/pkg/domain-errors"
)

type Handler struct {
	logger  *slog.Logger
	finance *service.Service
}

func New(finance *service.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, finance: finance}
}

// Register mounts the resource routes. Authentication is applied by the
// caller's router group; every route here assumes a principal in context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/doctors", func(r chi.Router) {
		r.Get("/", h.listDoctors)
		r.Post("/", h.createDoctor)
		r.Route("/{doctorID}", func(r chi.Router) {
			r.Get("/", h.getDoctor)
			r.Put("/", h.replaceDoctor)
			r.Patch("/", h.patchDoctor)
			r.Delete("/", h.deleteDoctor)
			r.Get("/financial-summary", h.financialSummary)
		})
	})

	r.Route("/hospitals", func(r chi.Router) {
		r.Get("/", h.listHospitals)
		r.Post("/", h.createHospital)
		r.Route("/{hospitalID}", func(r chi.Router) {
			r.Get("/", h.getHospital)
			r.Put("/", h.replaceHospital)
			r.Patch("/", h.patchHospital)
			r.Delete("/", h.deleteHospital)
		})
	})

	r.Route("/productions", func(r chi.Router) {
		r.Get("/", h.listProductions)
		r.Post("/", h.createProduction)
		r.Route("/{productionID}", func(r chi.Router) {
			r.Get("/", h.getProduction)
			r.Put("/", h.replaceProduction)
			r.Patch("/", h.patchProduction)
			r.Delete("/", h.deleteProduction)
		})
	})

	r.Route("/transfers", func(r chi.Router) {
		r.Get("/", h.listTransfers)
		r.Post("/", h.createTransfer)
		r.Route("/{transferID}", func(r chi.Router) {
			r.Get("/", h.getTransfer)
			r.Put("/", h.replaceTransfer)
			r.Patch("/", h.patchTransfer)
			r.Delete("/", h.deleteTransfer)
		})
	})
}

// Doctors

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.finance.ListDoctors(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if doctors == nil {
		doctors = []*models.Doctor{}
	}
	shared.WriteJSON(w, http.StatusOK, doctors)
}

func (h *Handler) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doctor, err := h.finance.CreateDoctor(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, doctor)
}

func (h *Handler) getDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	doctor, err := h.finance.GetDoctor(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doctor)
}

func (h *Handler) replaceDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doctor, err := h.finance.ReplaceDoctor(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doctor)
}

func (h *Handler) patchDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	doctor, err := h.finance.PatchDoctor(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, doctor)
}

func (h *Handler) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.finance.DeleteDoctor(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) financialSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	from, err := queryDate(r, "start_date")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := queryDate(r, "end_date")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	summary, err := h.finance.FinancialSummary(r.Context(), id, from, to)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

// Hospitals

func (h *Handler) listHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.finance.ListHospitals(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if hospitals == nil {
		hospitals = []*models.Hospital{}
	}
	shared.WriteJSON(w, http.StatusOK, hospitals)
}

func (h *Handler) createHospital(w http.ResponseWriter, r *http.Request) {
	var req models.CreateHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hospital, err := h.finance.CreateHospital(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, hospital)
}

func (h *Handler) getHospital(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hospitalID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	hospital, err := h.finance.GetHospital(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, hospital)
}

func (h *Handler) replaceHospital(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hospitalID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hospital, err := h.finance.ReplaceHospital(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, hospital)
}

func (h *Handler) patchHospital(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hospitalID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hospital, err := h.finance.PatchHospital(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, hospital)
}

func (h *Handler) deleteHospital(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "hospitalID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.finance.DeleteHospital(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Productions

func (h *Handler) listProductions(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilter(r, true)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	productions, err := h.finance.ListProductions(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if productions == nil {
		productions = []*models.Production{}
	}
	shared.WriteJSON(w, http.StatusOK, productions)
}

func (h *Handler) createProduction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	production, err := h.finance.CreateProduction(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, production)
}

func (h *Handler) getProduction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	production, err := h.finance.GetProduction(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, production)
}

func (h *Handler) replaceProduction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	production, err := h.finance.ReplaceProduction(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, production)
}

func (h *Handler) patchProduction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	production, err := h.finance.PatchProduction(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, production)
}

func (h *Handler) deleteProduction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productionID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.finance.DeleteProduction(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transfers

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilter(r, false)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	transfers, err := h.finance.ListTransfers(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if transfers == nil {
		transfers = []*models.Transfer{}
	}
	shared.WriteJSON(w, http.StatusOK, transfers)
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	transfer, err := h.finance.CreateTransfer(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, transfer)
}

func (h *Handler) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	transfer, err := h.finance.GetTransfer(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transfer)
}

func (h *Handler) replaceTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	transfer, err := h.finance.ReplaceTransfer(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transfer)
}

func (h *Handler) patchTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnBadBody(r, err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	transfer, err := h.finance.PatchTransfer(r.Context(), id, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transfer)
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transferID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.finance.DeleteTransfer(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// helpers

func (h *Handler) warnBadBody(r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "invalid request body",
		"path", r.URL.Path,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}

// pathID parses a UUID path parameter; an unparseable id cannot name any
// record, so it reads as NotFound.
func pathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeNotFound, "no record with that id")
	}
	return id, nil
}

// eventFilter reads the ?doctor= (and, for productions, ?hospital=) query
// parameters. An absent parameter is no constraint; a malformed one is a
// validation error, never silently ignored.
func eventFilter(r *http.Request, allowHospital bool) (store.EventFilter, error) {
	var filter store.EventFilter
	q := r.URL.Query()

	if raw := q.Get("doctor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "doctor filter must be a valid id")
		}
		filter.DoctorID = &id
	}
	if allowHospital {
		if raw := q.Get("hospital"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filter, dErrors.New(dErrors.CodeBadRequest, "hospital filter must be a valid id")
			}
			filter.HospitalID = &id
		}
	}
	return filter, nil
}

// queryDate reads an optional yyyy-mm-dd query parameter. Malformed values
// fail the request with a validation error.
func queryDate(r *http.Request, param string) (*models.Date, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, param+" must be a yyyy-mm-dd date")
	}
	return &date, nil
}
