// Package http contains the REST handlers and the embedded browser
// bootstrap that renders grids and answers method calls over the websocket.
package http
