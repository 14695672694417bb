package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/holidays"
)

// ImportHolidays handles POST /capacity/rules/holidays. The calendar is read
// from the "file" part of a multipart form, or else the raw request body.
// Optional query parameters hours and staffId shape the generated exceptions.
func (h *Handler) ImportHolidays(c *gin.Context) {
	opts, err := holidayOptions(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var src io.Reader = c.Request.Body
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("file")
		if err != nil {
			h.respondError(c, capacity.Invalid("file", "is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.respondError(c, capacity.Invalid("file", "could not open uploaded file"))
			return
		}
		defer f.Close()
		src = f
	}

	imported, err := holidays.Parse(src, opts)
	if err != nil {
		switch {
		case errors.Is(err, holidays.ErrInvalidCalendar), errors.Is(err, holidays.ErrNoEvents):
			h.respondError(c, capacity.Invalid("file", err.Error()))
		default:
			h.respondError(c, err)
		}
		return
	}

	rules, err := h.Store.GetRules(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	rules.Exceptions = holidays.Merge(rules.Exceptions, imported)
	h.saveRules(c, rules, "ics")
}

func holidayOptions(c *gin.Context) (holidays.Options, error) {
	var opts holidays.Options
	if v := c.Query("hours"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours < 0 || hours > 24 {
			return opts, capacity.Invalid("hours", "must be a number between 0 and 24")
		}
		opts.Hours = &hours
	}
	if v := c.Query("staffId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return opts, capacity.Invalid("staffId", "must be a positive integer")
		}
		staffID := uint(id)
		opts.StaffID = &staffID
	}
	return opts, nil
}
