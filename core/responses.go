package core

// Pre-compiled JSON bodies for the REST responses common enough to skip
// encoding/json entirely: a status-only acknowledgement or a fixed error
// message never needs the marshaler, so these are built once at package
// init and written as-is.
var (
	jsonOKBytes       = []byte(`{"ok":true}`)
	jsonCreatedBytes  = []byte(`{"created":true}`)
	jsonDeletedBytes  = []byte(`{"deleted":true}`)
	jsonUpdatedBytes  = []byte(`{"updated":true}`)
	jsonAcceptedBytes = []byte(`{"accepted":true}`)

	json400Bytes = []byte(`{"error":"Bad Request"}`)
	json401Bytes = []byte(`{"error":"Unauthorized"}`)
	json403Bytes = []byte(`{"error":"Forbidden"}`)
	json404Bytes = []byte(`{"error":"Not Found"}`)
	json405Bytes = []byte(`{"error":"Method Not Allowed"}`)
	json408Bytes = []byte(`{"error":"Request Timeout"}`)
	json409Bytes = []byte(`{"error":"Conflict"}`)
	json410Bytes = []byte(`{"error":"Gone"}`)
	json413Bytes = []byte(`{"error":"Payload Too Large"}`)
	json422Bytes = []byte(`{"error":"Unprocessable Entity"}`)
	json429Bytes = []byte(`{"error":"Too Many Requests"}`)

	json500Bytes = []byte(`{"error":"Internal Server Error"}`)
	json501Bytes = []byte(`{"error":"Not Implemented"}`)
	json502Bytes = []byte(`{"error":"Bad Gateway"}`)
	json503Bytes = []byte(`{"error":"Service Unavailable"}`)
	json504Bytes = []byte(`{"error":"Gateway Timeout"}`)
)

// writeJSONPrebuilt sets the JSON content type, writes status and body
// directly to whichever response backend c holds, and marks the response
// written. Every JSONXxx helper below is this call plus a status code and a
// pre-built body — the duplication those helpers used to carry between
// c.wireRes and c.httpRes lives here exactly once.
func (c *Context) writeJSONPrebuilt(status int, body []byte) error {
	c.setContentTypeJSON()
	c.statusCode = status
	c.written = true

	if c.wireRes != nil {
		c.wireRes.WriteHeader(status)
		_, err := c.wireRes.Write(body)
		return err
	}

	c.httpRes.WriteHeader(status)
	_, err := c.httpRes.Write(body)
	return err
}

// JSONOK sends {"ok":true} with 200 status.
//
// Example:
//
//	app.Get("/ping", func(c *ember.Context) error {
//	    return c.JSONOK()
//	})
func (c *Context) JSONOK() error { return c.writeJSONPrebuilt(200, jsonOKBytes) }

// JSONCreated sends {"created":true} with 201 status.
//
// Example:
//
//	app.Post("/users", func(c *ember.Context) error {
//	    // ... create user ...
//	    return c.JSONCreated()
//	})
func (c *Context) JSONCreated() error { return c.writeJSONPrebuilt(201, jsonCreatedBytes) }

// JSONDeleted sends {"deleted":true} with 200 status.
func (c *Context) JSONDeleted() error { return c.writeJSONPrebuilt(200, jsonDeletedBytes) }

// JSONUpdated sends {"updated":true} with 200 status.
func (c *Context) JSONUpdated() error { return c.writeJSONPrebuilt(200, jsonUpdatedBytes) }

// JSONAccepted sends {"accepted":true} with 202 status, for async
// operations that have been queued but not completed.
func (c *Context) JSONAccepted() error { return c.writeJSONPrebuilt(202, jsonAcceptedBytes) }

// JSONNoContent sends 204 No Content with an empty body.
func (c *Context) JSONNoContent() error {
	c.statusCode = 204
	c.written = true

	if c.wireRes != nil {
		c.wireRes.WriteHeader(204)
		return nil
	}
	c.httpRes.WriteHeader(204)
	return nil
}

// JSONBadRequest sends {"error":"Bad Request"} with 400 status.
func (c *Context) JSONBadRequest() error { return c.writeJSONPrebuilt(400, json400Bytes) }

// JSONUnauthorized sends {"error":"Unauthorized"} with 401 status.
func (c *Context) JSONUnauthorized() error { return c.writeJSONPrebuilt(401, json401Bytes) }

// JSONForbidden sends {"error":"Forbidden"} with 403 status.
func (c *Context) JSONForbidden() error { return c.writeJSONPrebuilt(403, json403Bytes) }

// JSONNotFound sends {"error":"Not Found"} with 404 status.
//
// Example:
//
//	app.Get("/users/:id", func(c *ember.Context) error {
//	    user := findUser(c.Param("id"))
//	    if user == nil {
//	        return c.JSONNotFound()
//	    }
//	    return c.JSON(200, user)
//	})
func (c *Context) JSONNotFound() error { return c.writeJSONPrebuilt(404, json404Bytes) }

// JSONMethodNotAllowed sends {"error":"Method Not Allowed"} with 405 status.
func (c *Context) JSONMethodNotAllowed() error { return c.writeJSONPrebuilt(405, json405Bytes) }

// JSONRequestTimeout sends {"error":"Request Timeout"} with 408 status —
// the client took too long sending the request itself, distinct from the
// Timeout middleware's 504 (the request arrived fine, the handler was slow).
func (c *Context) JSONRequestTimeout() error { return c.writeJSONPrebuilt(408, json408Bytes) }

// JSONConflict sends {"error":"Conflict"} with 409 status, for operations
// that conflict with the resource's current state.
func (c *Context) JSONConflict() error { return c.writeJSONPrebuilt(409, json409Bytes) }

// JSONGone sends {"error":"Gone"} with 410 status, for a resource that
// existed but has been permanently removed.
func (c *Context) JSONGone() error { return c.writeJSONPrebuilt(410, json410Bytes) }

// JSONPayloadTooLarge sends {"error":"Payload Too Large"} with 413 status.
func (c *Context) JSONPayloadTooLarge() error { return c.writeJSONPrebuilt(413, json413Bytes) }

// JSONUnprocessableEntity sends {"error":"Unprocessable Entity"} with 422
// status — the request was well-formed but failed validation.
func (c *Context) JSONUnprocessableEntity() error { return c.writeJSONPrebuilt(422, json422Bytes) }

// JSONTooManyRequests sends {"error":"Too Many Requests"} with 429 status.
func (c *Context) JSONTooManyRequests() error { return c.writeJSONPrebuilt(429, json429Bytes) }

// JSONInternalError sends {"error":"Internal Server Error"} with 500 status.
//
// Example:
//
//	app.Get("/data", func(c *ember.Context) error {
//	    data, err := fetchData()
//	    if err != nil {
//	        return c.JSONInternalError()
//	    }
//	    return c.JSON(200, data)
//	})
func (c *Context) JSONInternalError() error { return c.writeJSONPrebuilt(500, json500Bytes) }

// JSONNotImplemented sends {"error":"Not Implemented"} with 501 status, for
// a recognized but unsupported method or feature.
func (c *Context) JSONNotImplemented() error { return c.writeJSONPrebuilt(501, json501Bytes) }

// JSONBadGateway sends {"error":"Bad Gateway"} with 502 status.
func (c *Context) JSONBadGateway() error { return c.writeJSONPrebuilt(502, json502Bytes) }

// JSONServiceUnavailable sends {"error":"Service Unavailable"} with 503
// status, for maintenance mode or overload conditions.
func (c *Context) JSONServiceUnavailable() error { return c.writeJSONPrebuilt(503, json503Bytes) }

// JSONGatewayTimeout sends {"error":"Gateway Timeout"} with 504 status —
// the status the Timeout middleware sends when a handler misses its
// deadline (see ErrGatewayTimeout in types.go).
func (c *Context) JSONGatewayTimeout() error { return c.writeJSONPrebuilt(504, json504Bytes) }
