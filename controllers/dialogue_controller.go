package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"socratic/middleware"
	"socratic/models"
	"socratic/services"
	"socratic/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DialogueHandler processes POST /dialogue
func (c *Controller) DialogueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DialogueRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Detail: decodeIssues(err)})
		return
	}

	if err := validate.Struct(req); err != nil {
		utils.JSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Detail: validationIssues(err)})
		return
	}

	resp, err := c.chatbot.Dialogue(r.Context(), req)
	if err != nil {
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) {
			c.logger.Warn("dialogue failed", "req_id", middleware.GetRequestID(r.Context()), "err", err)
			utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Detail: upstream.Error()})
			return
		}
		c.logger.Error("dialogue failed", "req_id", middleware.GetRequestID(r.Context()), "err", err)
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Detail: http.StatusText(http.StatusInternalServerError)})
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

// decodeIssues maps a JSON decoding failure onto request-schema issues
func decodeIssues(err error) []models.ValidationIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		return []models.ValidationIssue{{
			Loc:  loc,
			Msg:  fmt.Sprintf("Input should be a valid %s", typeErr.Type.Kind()),
			Type: typeErr.Type.Kind().String() + "_type",
		}}
	}

	return []models.ValidationIssue{{
		Loc:  []string{"body"},
		Msg:  "JSON decode error: " + err.Error(),
		Type: "json_invalid",
	}}
}

// validationIssues maps validator failures onto request-schema issues
func validationIssues(err error) []models.ValidationIssue {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []models.ValidationIssue{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}

	issues := make([]models.ValidationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issue := models.ValidationIssue{
			Loc:  []string{"body", fe.Field()},
			Msg:  fmt.Sprintf("Failed on the '%s' rule", fe.Tag()),
			Type: fe.Tag(),
		}
		if fe.Tag() == "required" {
			issue.Msg = "Field required"
			issue.Type = "missing"
		}
		issues = append(issues, issue)
	}
	return issues
}
