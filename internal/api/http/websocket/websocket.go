package websocket

import (
	"net/http"
	"time"

	"shadow-court-be/internal/service/game"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间
	HEARTBEAT_TIMEOUT = 45 * time.Second
	// 单次写入超时时间
	WRITE_TIMEOUT = 10 * time.Second
)

// playerConn 封装一条玩家连接，写操作只允许在写协程中调用
type playerConn struct {
	conn     *websocket.Conn
	clientIP string
}

// upgrade 升级连接并开启心跳超时检测
func upgrade(ctx iris.Context) (*playerConn, error) {
	conn, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
	if err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
	})

	return &playerConn{
		conn:     conn,
		clientIP: ctx.RemoteAddr(),
	}, nil
}

func (pc *playerConn) read() ([]byte, error) {
	_, msg, err := pc.conn.ReadMessage()
	return msg, err
}

func (pc *playerConn) send(resp game.ResponseWrapper) error {
	pc.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
	return pc.conn.WriteJSON(resp)
}

func (pc *playerConn) ping() error {
	pc.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
	return pc.conn.WriteMessage(websocket.PingMessage, nil)
}

// finish 通知客户端对局已结束
func (pc *playerConn) finish(reason string) error {
	return pc.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(WRITE_TIMEOUT),
	)
}

func (pc *playerConn) close() error {
	return pc.conn.Close()
}

// unexpectedClose 判断读错误是否需要记录
func unexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNormalClosure,
	)
}
