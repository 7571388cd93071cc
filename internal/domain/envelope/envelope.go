// Package envelope turns query results into transport-neutral responses.
package envelope

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"

	"github.com/okian/satfinder/internal/domain/model"
	"github.com/okian/satfinder/pkg/errkind"
)

// Header names and the fixed content type of every response.
const (
	HeaderContentType  = "Content-Type"
	HeaderCacheControl = "Cache-Control"
	ContentType        = "text/javascript"
)

// Response is what the query pipeline hands back to a transport.
type Response struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// Build serializes result. An absent result (nil, nil pointer, nil map or
// slice) becomes a 404. Otherwise the body is JSON, indented by two spaces
// when pretty, and clients may cache it for clientCacheSeconds.
func Build(result any, pretty bool, clientCacheSeconds int) (Response, error) {
	if absent(result) {
		return NotFound(), nil
	}

	var (
		body []byte
		err  error
	)
	if pretty {
		body, err = json.MarshalIndent(result, "", "  ")
	} else {
		body, err = json.Marshal(result)
	}
	if err != nil {
		return Response{}, errkind.Wrap("envelope.Build", err)
	}

	return Response{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			HeaderContentType:  ContentType,
			HeaderCacheControl: "max-age=" + strconv.Itoa(clientCacheSeconds),
		},
	}, nil
}

// NotFound is the response for a query in which no satellite resolved.
func NotFound() Response {
	return plain(http.StatusNotFound, model.ErrNotFound.Error())
}

// BadRequest is the response for invalid input. It never echoes detail.
func BadRequest() Response {
	return plain(http.StatusBadRequest, model.ErrValidation.Error())
}

func plain(status int, body string) Response {
	return Response{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{HeaderContentType: ContentType},
	}
}

func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
