package server

import "go.uber.org/zap"

// WebSocketLogger provides structured logging for connection events.
type WebSocketLogger struct {
	logger *zap.Logger
}

func NewWebSocketLogger() *WebSocketLogger {
	return &WebSocketLogger{
		logger: zap.L().With(zap.String("component", "websocket")),
	}
}

func (l *WebSocketLogger) Info(event string, userID, clientID string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
	}, fields...)
	l.logger.Info("websocket_event", allFields...)
}

func (l *WebSocketLogger) Warn(event string, userID, clientID string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
	}, fields...)
	l.logger.Warn("websocket_warning", allFields...)
}

func (l *WebSocketLogger) Error(event string, userID, clientID string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("event", event),
		zap.String("user_id", userID),
		zap.String("client_id", clientID),
		zap.Error(err),
	}, fields...)
	l.logger.Error("websocket_error", allFields...)
}
