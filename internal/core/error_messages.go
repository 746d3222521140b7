package core

// error_messages.go maps batch-level errors to the response envelope.
//
// Each category has a code that callers can quote to support:
//
//	REQ001 - Malformed request body (not JSON, wrong field types)          400
//	REQ002 - Missing spreadsheet (base64data empty)                        400
//	REQ003 - Request body over the configured size limit                  413
//	CFG001 - Missing service or endpoint                                   400
//	CFG002 - Malformed structure (bad rule objects, unknown parse type)    400
//	CFG003 - Missing structure                                             400
//	DEC001 - Spreadsheet could not be decoded                              400
//	SCH001 - Mapped columns missing from the spreadsheet header            400
//	BAT001 - Too many batches in progress                                  429
//	ERR000 - Anything else                                                 500
//
// Row-level errors never reach this mapping: they are reported per row in
// the result's failure list.

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope messages. These strings are part of the public response contract.
const (
	MsgProcessed        = "Documento procesado correctamente"
	MsgPartial          = "Documento procesado parcialmente, revise los registros erróneos"
	MsgNoneProcessed    = "Ningún registro del documento pudo ser procesado"
	MsgInvalidBody      = "Error el payload no sigue el formato JSON esperado"
	MsgMissingData      = "Error no se recibió el archivo a procesar"
	MsgBodyTooLarge     = "Error el archivo excede el tamaño máximo permitido"
	MsgMissingEndpoint  = "Error no se especificó el servicio o endpoint de destino"
	MsgInvalidStructure = "Error la estructura de mapeo no es válida"
	MsgMissingStructure = "Error no se especificó la estructura de mapeo"
	MsgDecode           = "Error el archivo no pudo ser leído"
	MsgMissingColumns   = "Error el archivo no contiene las columnas esperadas"
	MsgBusy             = "Demasiados procesos en curso, intente de nuevo más tarde"
	MsgRateLimited      = "Demasiadas solicitudes, intente de nuevo en un minuto"
	MsgMethodNotAllowed = "Metodo no permitido"
	MsgNotFound         = "Recurso no encontrado"
	MsgInternal         = "Error registrando los datos del archivo"
	MsgOK               = "OK"
)

// ErrInvalidBody marks a request body that is not the expected JSON object.
var ErrInvalidBody = errors.New("invalid request body")

// UserMessage is the caller-facing description of a failed request.
type UserMessage struct {
	Status  int    // HTTP status for the envelope
	Message string // What happened
	Detail  string // Technical detail safe to return (missing columns, rule errors)
	Code    string // Support reference
}

// ClassifyError maps err to its envelope status, message and code.
// Returns the zero UserMessage for a nil error.
func ClassifyError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		missingCols *MissingColumnsError
		decodeErr   *DecodeError
		configErr   *ConfigError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		tooLarge    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &missingCols):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgMissingColumns, Detail: missingCols.Error(), Code: "SCH001"}
	case errors.Is(err, ErrMissingData):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgMissingData, Detail: err.Error(), Code: "REQ002"}
	case errors.As(err, &decodeErr):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgDecode, Detail: decodeErr.Error(), Code: "DEC001"}
	case errors.Is(err, ErrMissingEndpointConfig):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgMissingEndpoint, Detail: err.Error(), Code: "CFG001"}
	case errors.Is(err, ErrMissingStructure):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgMissingStructure, Detail: err.Error(), Code: "CFG003"}
	case errors.As(err, &configErr):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgInvalidStructure, Detail: configErr.Error(), Code: "CFG002"}
	case errors.As(err, &tooLarge):
		return UserMessage{Status: http.StatusRequestEntityTooLarge, Message: MsgBodyTooLarge, Detail: err.Error(), Code: "REQ003"}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, ErrInvalidBody):
		return UserMessage{Status: http.StatusBadRequest, Message: MsgInvalidBody, Detail: err.Error(), Code: "REQ001"}
	case errors.Is(err, ErrTooManyBatches):
		return UserMessage{Status: http.StatusTooManyRequests, Message: MsgBusy, Code: "BAT001"}
	default:
		return UserMessage{Status: http.StatusInternalServerError, Message: MsgInternal, Code: "ERR000"}
	}
}
