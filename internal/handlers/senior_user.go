package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/cache"
	"github.com/diewo77/go-seniorcare/internal/logging"
	"github.com/diewo77/go-seniorcare/internal/models"
	"github.com/diewo77/go-seniorcare/internal/seniorform"
	"github.com/diewo77/go-seniorcare/validation"
	"github.com/diewo77/go-seniorcare/view"
)

const listPageSize = 20

// SeniorUserAPI is the backend surface used by the senior user pages.
type SeniorUserAPI interface {
	seniorform.API
	seniorform.UserSource
	seniorform.HealthPlanSource
	GetSeniorUsers(ctx context.Context, p apisdk.ListParams) (*httpx.Page[models.SeniorUser], error)
}

type SeniorUserHandler struct {
	api     SeniorUserAPI
	loader  *cache.Loader
	guard   *seniorform.SubmitGuard
	metrics *seniorform.Metrics
	view    *view.Renderer
	log     logrus.FieldLogger
}

func NewSeniorUserHandler(api SeniorUserAPI, loader *cache.Loader, guard *seniorform.SubmitGuard,
	metrics *seniorform.Metrics, rd *view.Renderer, log logrus.FieldLogger) *SeniorUserHandler {
	return &SeniorUserHandler{
		api:     api,
		loader:  loader,
		guard:   guard,
		metrics: metrics,
		view:    rd,
		log:     log.WithField("component", "senior_user_handler"),
	}
}

func (h *SeniorUserHandler) controller(ctx context.Context, nav seniorform.Navigator) *seniorform.Controller {
	return seniorform.New(h.api, h.loader, nav,
		seniorform.WithGuard(h.guard),
		seniorform.WithMetrics(h.metrics),
		seniorform.WithLogger(logging.FromContext(ctx)),
	)
}

func (h *SeniorUserHandler) pickers() []seniorform.Picker {
	return []seniorform.Picker{
		seniorform.UserPicker(h.api),
		seniorform.HealthPlanPicker(h.api),
	}
}

// List shows one page of senior users.
func (h *SeniorUserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * listPageSize

	res, err := h.api.GetSeniorUsers(r.Context(), apisdk.ListParams{Limit: listPageSize, Offset: offset})
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("list senior users failed")
		h.render(w, r, http.StatusBadGateway, "senior-users/index.html", map[string]any{"Error": "error_list", "Page": page})
		return
	}

	data := map[string]any{
		"SeniorUsers": res.Items,
		"Page":        page,
		"Total":       res.Total,
	}
	if page > 1 {
		data["PrevPage"] = page - 1
	}
	if int64(offset+len(res.Items)) < res.Total {
		data["NextPage"] = page + 1
	}
	h.render(w, r, http.StatusOK, "senior-users/index.html", data)
}

// Edit loads the record and renders the form.
func (h *SeniorUserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r.Context(), nil)
	ctrl.SetID(r.PathValue("id"))

	status := http.StatusOK
	if err := ctrl.Load(r.Context()); err != nil {
		var fetchErr *seniorform.FetchError
		switch {
		case errors.As(err, &fetchErr) && fetchErr.NotFound():
			status = http.StatusNotFound
			if err := h.loader.Invalidate(r.Context(), fetchErr.ID); err != nil {
				logging.FromContext(r.Context()).WithError(err).Warn("cache invalidation failed")
			}
		case errors.As(err, &fetchErr):
			status = http.StatusBadGateway
		case errors.Is(err, seniorform.ErrNotReady):
			status = http.StatusNotFound
		}
	}
	h.renderEdit(w, r, status, ctrl.Snapshot(), nil)
}

// Update validates the posted values and sends them to the backend. On
// success the browser is sent to the listing.
func (h *SeniorUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var f EditForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var target string
	ctrl := h.controller(r.Context(), seniorform.NavigatorFunc(func(path string) { target = path }))
	ctrl.Restore(id, f.Values())

	_, err := ctrl.Submit(r.Context())
	if err == nil {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	snap := ctrl.Snapshot()
	var (
		submitErr *seniorform.SubmitError
		valErr    *seniorform.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		h.renderEdit(w, r, http.StatusUnprocessableEntity, snap, nil)
	case errors.Is(err, seniorform.ErrSubmitInFlight):
		h.renderEdit(w, r, http.StatusConflict, snap, map[string]any{"Error": "error_submit_in_progress"})
	case errors.As(err, &submitErr):
		status := http.StatusBadGateway
		if submitErr.Status() == http.StatusUnprocessableEntity {
			status = http.StatusUnprocessableEntity
		}
		h.renderEdit(w, r, status, snap, nil)
	default:
		h.log.WithError(err).WithField("id", id).Error("unexpected submit error")
		h.renderEdit(w, r, http.StatusInternalServerError, snap, map[string]any{"Error": "error_submit"})
	}
}

// Options lists picker candidates as JSON.
// GET /senior-users/edit/{id}/options/{field}?q=&selected=
func (h *SeniorUserHandler) Options(w http.ResponseWriter, r *http.Request) {
	field := r.PathValue("field")
	var picker *seniorform.Picker
	for _, p := range h.pickers() {
		if p.Name == field {
			picker = &p
			break
		}
	}
	if picker == nil {
		httpx.JSONError(w, http.StatusNotFound, "unknown_field", nil)
		return
	}

	q := r.URL.Query()
	var selected *string
	if q.Has("selected") {
		s := q.Get("selected")
		selected = &s
	} else if rec, ok := h.loader.Peek(r.Context(), r.PathValue("id")); ok {
		selected, _ = seniorform.ValuesFromRecord(rec).Get(field)
	}

	opts, err := picker.Options(r.Context(), q.Get("q"), selected)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).WithField("field", field).Warn("picker options failed")
		httpx.JSONError(w, http.StatusBadGateway, "options_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, opts)
}

type fieldView struct {
	Name  string
	Label string
	Value string
	Null  bool
	Error string
}

type pickerView struct {
	fieldView
	Placeholder string
	OptionsURL  string
	Options     []seniorform.Option
}

type editView struct {
	ID             string
	Loading        bool
	ShowForm       bool
	SubmitDisabled bool
	Progress       fieldView
	Pickers        []pickerView
}

func (h *SeniorUserHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, snap seniorform.Snapshot, extra map[string]any) {
	fieldErrors := snap.FieldErrors
	data := map[string]any{}

	if snap.FetchErr != nil {
		code := "error_fetch"
		if snap.FetchErr.NotFound() {
			code = "not_found"
		}
		data["FetchError"] = code
		data["FetchErrorDetail"] = apiMessage(snap.FetchErr)
	}
	if snap.SubmitErr != nil {
		data["Error"] = "error_submit"
		data["ErrorDetail"] = apiMessage(snap.SubmitErr)
		if details := snap.SubmitErr.Details(); len(details) > 0 {
			data["ErrorFields"] = details
			merged := make(validation.Violations, len(fieldErrors)+len(details))
			for k, v := range details {
				merged[k] = v
			}
			for k, v := range fieldErrors {
				merged[k] = v
			}
			fieldErrors = merged
		}
	}
	if !fieldErrors.Empty() {
		data["Errors"] = fieldErrors
	}
	for k, v := range extra {
		data[k] = v
	}

	form := editView{
		ID:             snap.ID,
		Loading:        snap.Loading(),
		ShowForm:       snap.ShowForm(),
		SubmitDisabled: snap.SubmitDisabled(),
		Progress:       newFieldView(seniorform.FieldProgress, seniorform.FieldProgress, snap.Values.Progress, fieldErrors),
	}
	if form.ShowForm {
		for _, p := range h.pickers() {
			selected, _ := snap.Values.Get(p.Name)
			pv := pickerView{
				fieldView:   newFieldView(p.Name, p.Label, selected, fieldErrors),
				Placeholder: p.Placeholder,
				OptionsURL:  "/senior-users/edit/" + snap.ID + "/options/" + p.Name,
			}
			opts, err := p.Options(r.Context(), "", selected)
			if err != nil {
				logging.FromContext(r.Context()).WithError(err).WithField("field", p.Name).Warn("picker options failed")
				if selected != nil && *selected != "" {
					opts = []seniorform.Option{{Value: *selected, Label: *selected, Selected: true}}
				}
			}
			pv.Options = opts
			form.Pickers = append(form.Pickers, pv)
		}
	}
	data["Form"] = form
	h.render(w, r, status, "senior-users/edit.html", data)
}

func newFieldView(name, label string, value *string, errs validation.Violations) fieldView {
	fv := fieldView{Name: name, Label: label, Null: value == nil, Error: errs[name]}
	if value != nil {
		fv.Value = *value
	}
	return fv
}

// apiMessage returns the backend's error message, if err carries one.
func apiMessage(err error) string {
	var apiErr *apisdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func (h *SeniorUserHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := h.view.RenderStatus(w, r, status, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
