// Package connection talks to a tokgate server on behalf of tokgate-cli.
//
// SocketClient performs the socket handshake with gorilla/websocket and
// returns the server's response envelope. HTTPClient reads the
// operational endpoints.
package connection
