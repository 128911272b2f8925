package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FillWorkbook handles POST /api/v1/workbook/fill. The multipart field "file"
// holds the workbook; the filled copy is returned as an attachment.
func (h *Handler) FillWorkbook(c *gin.Context) {
	if h.filler == nil {
		unavailable(c, "workbook filler")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("multipart field \"file\" is required"))
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		badRequest(c, errors.New("only .xlsx workbooks are supported"))
		return
	}

	src, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer src.Close()

	var out bytes.Buffer
	report, err := h.filler.FillReader(c.Request.Context(), src, &out)
	switch {
	case errors.Is(err, workbook.ErrInvalidWorkbook), errors.Is(err, workbook.ErrSheetNotFound):
		badRequest(c, err)
		return
	case err != nil:
		h.log(c).Error("Workbook fill failed", logger.String("file", fh.Filename), logger.Error(err))
		internalError(c, "workbook fill failed")
		return
	}

	name := "filled_" + filepath.Base(fh.Filename)
	c.Header("X-Rows-Filled", strconv.Itoa(report.Rows))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, out.Bytes())
}

// UpdateMaster handles POST /api/v1/workbook/master. Multipart fields
// "checked" and "master" hold the reviewed monthly workbook and the master;
// form field "period" names the month (e.g. Dec-25). The updated master is
// returned as an attachment.
func (h *Handler) UpdateMaster(c *gin.Context) {
	period := strings.TrimSpace(c.PostForm("period"))
	if period == "" {
		badRequest(c, errors.New("form field \"period\" is required"))
		return
	}

	checked, checkedName, err := openXLSX(c, "checked")
	if err != nil {
		badRequest(c, err)
		return
	}
	defer checked.Close()

	master, masterName, err := openXLSX(c, "master")
	if err != nil {
		badRequest(c, err)
		return
	}
	defer master.Close()

	var out bytes.Buffer
	report, err := workbook.UpdateMasterReader(checked, master, &out, period)
	switch {
	case errors.Is(err, workbook.ErrInvalidWorkbook),
		errors.Is(err, workbook.ErrSheetNotFound),
		errors.Is(err, workbook.ErrInvalidPeriod),
		errors.Is(err, workbook.ErrMissingValue):
		badRequest(c, err)
		return
	case err != nil:
		h.log(c).Error("Master update failed",
			logger.String("checked", checkedName),
			logger.String("master", masterName),
			logger.Error(err),
		)
		internalError(c, "master update failed")
		return
	}

	c.Header("X-Period", report.Period)
	c.Header("X-Tier-Column", report.TierColumn)
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(masterName)+`"`)
	c.Data(http.StatusOK, xlsxContentType, out.Bytes())
}

func openXLSX(c *gin.Context, field string) (multipart.File, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("multipart field %q is required", field)
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		return nil, "", fmt.Errorf("%s: only .xlsx workbooks are supported", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	return f, fh.Filename, nil
}
