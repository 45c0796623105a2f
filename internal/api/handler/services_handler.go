package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/ports"
)

// ServicesHandler serves the catalogue and creates service requests.
type ServicesHandler struct {
	catalog ports.CatalogAPI
	log     zerolog.Logger
}

func NewServicesHandler(catalog ports.CatalogAPI, log zerolog.Logger) *ServicesHandler {
	return &ServicesHandler{catalog: catalog, log: log}
}

type servicesResponse struct {
	Services json.RawMessage `json:"services,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// List renders the service catalogue view model.
//
// @Summary      Service catalogue
// @Tags         services
// @Produce      json
// @Success      200  {object}  servicesResponse
// @Router       /services [get]
func (h *ServicesHandler) List(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	services, err := h.catalog.Services(c.Request().Context(), token)
	if err != nil {
		h.log.Warn().Err(err).Msg("service catalogue fetch failed")
		return c.JSON(http.StatusOK, servicesResponse{Error: fetchMessage(err)})
	}
	return c.JSON(http.StatusOK, servicesResponse{Services: services})
}

type requestServiceRequest struct {
	ServiceID   int64  `json:"servicio_id" validate:"required"`
	Description string `json:"descripcion" validate:"required"`
	Address     string `json:"direccion"`
	Urgency     string `json:"urgencia"`
}

type requestServiceResponse struct {
	SolicitudID int64  `json:"solicitudId"`
	Redirect    string `json:"redirect"`
}

// Request creates a new service request.
func (h *ServicesHandler) Request(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	var req requestServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.catalog.RequestService(c.Request().Context(), token, ports.ServiceRequestInput{
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Address:     req.Address,
		Urgency:     req.Urgency,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, requestServiceResponse{
		SolicitudID: res.SolicitudID,
		Redirect:    "/historial",
	})
}

// maxPhotoBytes bounds one uploaded photo; the backend enforces its own
// limits, this only protects the gateway from buffering huge bodies.
const maxPhotoBytes = 10 << 20

// UploadPhotos forwards request photos to the backend. The upload is
// best-effort in the original flow: a created request without photos is still
// a valid request, so the client may retry this independently.
func (h *ServicesHandler) UploadPhotos(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	solicitudID, err := strconv.ParseInt(c.Param("solicitud_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no photos in form")
	}

	photos := make([]ports.PhotoUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxPhotoBytes {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "photo too large")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable photo")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable photo")
		}
		photos = append(photos, ports.PhotoUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	if err := h.catalog.UploadPhotos(c.Request().Context(), token, solicitudID, photos); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"uploaded": len(photos)})
}
