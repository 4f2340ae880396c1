package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer   http.ResponseWriter
	scope    string
	language string
}

func (r *ResponseWriter) SetLanguage(lang string) {
	if _, ok := LanguageMap[lang]; ok {
		r.language = lang
	}
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		Writer: w,
	}
}

type generalResponse struct {
	Errors  []*errorResponse `json:"errors"`
	Success bool             `json:"success"`
	Data    interface{}      `json:"data"`
}

type errorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Scope   string      `json:"scope"`
	Type    int         `json:"type"`
	Data    interface{} `json:"data"`
}

type ErrOption func(*errorResponse)

func WithErrorType(errType int) ErrOption {
	return func(err *errorResponse) {
		err.Type = errType
	}
}

func WithErrorScope(scope string) ErrOption {
	return func(err *errorResponse) {
		err.Scope = scope
	}
}

func (r *ResponseWriter) writeJSONResponse(code int, errors []*errorResponse, data interface{}) {
	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	response := &generalResponse{Errors: errors, Success: errors == nil, Data: data}
	b, err := json.Marshal(response)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
	}
	r.Writer.WriteHeader(code)
	if code, err := r.Writer.Write(b); err != nil {
		_ = fmt.Sprintf("could not response - code: %d", code)
	}
}

func (r *ResponseWriter) writePlainJSONResponse(statusCode int, data interface{}) {
	b, err := json.Marshal(data)
	if err != nil {
		r.Writer.WriteHeader(http.StatusInternalServerError)
		r.Writer.Write([]byte(fmt.Sprintf("unexpected error: %v", err)))
	}

	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(statusCode)

	if code, err := r.Writer.Write(b); err != nil {
		_ = fmt.Sprintf("could not response - code: %d", code)
	}
}

func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	logger := config.GetLogger()
	fields := make(log.Fields)
	fields["status_code"] = statusCode
	if statusCode >= 200 && statusCode <= 299 {
		logger.WithFields(fields).Info("success")
	}
	if statusCode >= 300 {
		if data == nil {
			data = map[string]interface{}{
				"error": message,
			}
		}
		if err == nil {
			err = errors.Errorf(message)
		}
		fields["errors"] = data
		logger.WithFields(fields).Error(err)
	}
	r.writePlainJSONResponse(statusCode, data)
}

// Write responds with the message translated for the request language,
// defaulting to French.
func (r *ResponseWriter) Write(statusCode int, data interface{}, err error, rm *NewRM) {
	message := ""
	if rm != nil {
		lang := r.language
		if lang == "" {
			lang = Language.French
		}
		message = (*rm)[lang]
	}
	r.WriteJSON(statusCode, data, err, message)
}

// StartLogger tags subsequent Log* calls with the handler name. Used by the
// webhook handlers, which always answer 200 and rely on logs for diagnosis.
func (r *ResponseWriter) StartLogger(scope string) {
	r.scope = scope
}

func (r *ResponseWriter) LogError(err error, message string) {
	logger := config.GetLogger()
	fields := log.Fields{"scope": r.scope}
	if err == nil {
		err = errors.Errorf(message)
	} else {
		err = errors.Wrap(err, message)
	}
	logger.WithFields(fields).Error(err)
	r.writePlainJSONResponse(http.StatusOK, map[string]interface{}{"message": message})
}

func (r *ResponseWriter) LogWarn(data interface{}, message string) {
	logger := config.GetLogger()
	logger.WithFields(log.Fields{"scope": r.scope, "data": data}).Warn(message)
	r.writePlainJSONResponse(http.StatusOK, map[string]interface{}{"message": message})
}

func (r *ResponseWriter) LogInfo(data interface{}, message string) {
	logger := config.GetLogger()
	logger.WithFields(log.Fields{"scope": r.scope, "data": data}).Info(message)
	r.writePlainJSONResponse(http.StatusOK, map[string]interface{}{"message": message})
}

func (r *ResponseWriter) JSON(code int, data interface{}) {
	r.writeJSONResponse(code, nil, data)
}

func (r *ResponseWriter) Stringf(code int, format string, args ...interface{}) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if code, err := r.Writer.Write([]byte(fmt.Sprintf(format, args...))); err != nil {
		_ = fmt.Sprintf("could not response - code: %d", code)
	}
}

func (r *ResponseWriter) Errorf(code int, format string, args ...interface{}) {
	errors := []*errorResponse{
		{Code: code, Message: fmt.Sprintf(format, args...)},
	}
	r.writeJSONResponse(code, errors, nil)
}

func (r *ResponseWriter) ErrorJ(code int, format string, data interface{}) {
	errors := []*errorResponse{
		{Code: code, Message: format, Data: data},
	}
	r.writeJSONResponse(code, errors, nil)
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if code, err := r.Writer.Write([]byte(msg)); err != nil {
		_ = fmt.Sprintf("could not response - code: %d", code)
	}
}

func (r *ResponseWriter) Error(code int, msg string, opts ...ErrOption) {
	err := &errorResponse{Code: code, Message: msg}
	for _, With := range opts {
		With(err)
	}
	r.writeJSONResponse(code, []*errorResponse{err}, nil)
}
