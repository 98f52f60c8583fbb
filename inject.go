package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"tugasku/models"
	"tugasku/pkg/crypt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response is the uniform handler result. Msg and Data go on the wire as
// {"msg": ..., "data": ...}; Status and Err only steer the pipeline and are
// never serialized. Once Err is set the Data passes through untouched: no
// output validation and no encryption.
type Response struct {
	Msg    string
	Data   any
	Status int
	Err    bool
}

func respond(msg string, status int, data any) *Response {
	return &Response{Msg: msg, Data: data, Status: status}
}

func respondErr(msg string, status int) *Response {
	return &Response{Msg: msg, Status: status, Err: true}
}

// HandlerFunc is a domain handler invoked after input validation. in is the
// validated request body (nil when the route declares no input shape).
// Handlers own their error statuses; the pipeline never second-guesses them.
type HandlerFunc func(c *gin.Context, in any) *Response

// InjectConfig declares one protected operation: the expected request body,
// the shape of the success payload, and whether that payload is encrypted
// with the caller's session key.
type InjectConfig struct {
	Input   func() any   // prototype for the request body; nil = no body
	Output  OutputSchema // per-element serializer; may be nil for empty payloads
	Encrypt bool
}

// secretHashForUser reads the caller's stored credential secret, always fresh
// from the database: a password change must affect the very next derivation.
// Package variable so pipeline tests can run without Postgres.
var secretHashForUser = func(userID uint) ([]byte, error) {
	var u models.User
	if err := db.First(&u, userID).Error; err != nil {
		return nil, err
	}
	return u.HashedPassword, nil
}

// Inject wraps a handler with the four-stage pipeline: resolve the session
// key when the response is encrypted, validate the input shape, invoke the
// handler, then validate/serialize and optionally encrypt the success
// payload. Every failure short-circuits into an error envelope; nothing
// escapes as a raw error.
func Inject(cfg InjectConfig, handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key []byte
		if cfg.Encrypt {
			key = sessionKey(c)
			if key == nil {
				writeResponse(c, respondErr(msgAuthRequired, http.StatusUnauthorized))
				return
			}
		}

		var in any
		if cfg.Input != nil {
			in = cfg.Input()
			if err := c.ShouldBindJSON(in); err != nil {
				writeResponse(c, invalidInput(err))
				return
			}
		}

		resp := handler(c, in)

		if resp.Err {
			writeResponse(c, resp)
			return
		}

		out, err := serializeData(cfg.Output, resp.Data)
		if err != nil {
			writeResponse(c, respondErr(msgInvalidResponseData, http.StatusInternalServerError))
			return
		}
		if out == nil {
			out = gin.H{}
		}
		resp.Data = out

		if cfg.Encrypt {
			raw, err := json.Marshal(resp.Data)
			if err == nil {
				var sealed string
				sealed, err = crypt.Encrypt(key, raw)
				resp.Data = sealed
			}
			if err != nil {
				writeResponse(c, respondErr(msgInvalidResponseData, http.StatusInternalServerError))
				return
			}
		}

		writeResponse(c, resp)
	}
}

// sessionKey re-derives the caller's response key from the salt carried in
// the access token and the credential secret as stored right now. Returns
// nil when identity, salt or secret cannot be resolved; tokens minted by
// refresh carry no salt and land here too.
func sessionKey(c *gin.Context) []byte {
	userID, ok := currentUserID(c)
	if !ok {
		return nil
	}
	salt := c.GetString(ctxSalt)
	if salt == "" {
		return nil
	}
	secret, err := secretHashForUser(userID)
	if err != nil {
		return nil
	}
	return crypt.DeriveKey(crypt.HashSecret(secret), salt)
}

// serializeData validates and converts a success payload through the output
// schema. A single element is processed as a one-element collection and then
// unwrapped again; an empty collection stays an empty collection; nil stays
// nil so deletions with nothing left to report serialize as {}.
func serializeData(schema OutputSchema, data any) (any, error) {
	if data == nil {
		return nil, nil
	}
	if schema == nil {
		return nil, errOutputShape
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice {
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := schema(v.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return schema(data)
}

// invalidInput maps a body-binding failure to a 400 envelope. Schema
// violations carry per-field detail; anything else, malformed JSON included,
// stays generic.
func invalidInput(err error) *Response {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		detail := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			detail[fe.Field()] = append(detail[fe.Field()], validationMessage(fe))
		}
		return &Response{
			Msg:    msgInvalidRequestData,
			Data:   detail,
			Status: http.StatusBadRequest,
			Err:    true,
		}
	}
	return respondErr(msgInvalidRequestData, http.StatusBadRequest)
}

func writeResponse(c *gin.Context, r *Response) {
	data := r.Data
	if data == nil {
		data = gin.H{}
	}
	c.JSON(r.Status, gin.H{"msg": r.Msg, "data": data})
}
