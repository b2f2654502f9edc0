// Package ws upgrades HTTP requests to websocket connections and pumps
// frames between the browser and the per-connection link client.
package ws
