package log

import (
	"fmt"
	"net"
	"os"
	"time"
)

// loggedConn wraps a net.Conn and appends all bytes read and written to a
// file. Deadlines and addresses pass through.
type loggedConn struct {
	conn    net.Conn
	logFile *os.File
}

// NewLoggedConn wraps conn so that all traffic in both directions is also
// written to the file at path. The file is created or appended to.
func NewLoggedConn(conn net.Conn, path string) (net.Conn, error) {
	logFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}

	return &loggedConn{conn: conn, logFile: logFile}, nil
}

func (lc *loggedConn) Read(b []byte) (int, error) {
	n, err := lc.conn.Read(b)
	if n > 0 {
		if _, werr := lc.logFile.Write(b[:n]); werr != nil {
			return n, fmt.Errorf("logging read bytes: %w", werr)
		}
	}
	return n, err
}

func (lc *loggedConn) Write(b []byte) (int, error) {
	n, err := lc.conn.Write(b)
	if n > 0 {
		if _, werr := lc.logFile.Write(b[:n]); werr != nil {
			return n, fmt.Errorf("logging written bytes: %w", werr)
		}
	}
	return n, err
}

func (lc *loggedConn) Close() error {
	defer lc.logFile.Close()
	return lc.conn.Close()
}

func (lc *loggedConn) LocalAddr() net.Addr {
	return lc.conn.LocalAddr()
}

func (lc *loggedConn) RemoteAddr() net.Addr {
	return lc.conn.RemoteAddr()
}

func (lc *loggedConn) SetDeadline(t time.Time) error {
	return lc.conn.SetDeadline(t)
}

func (lc *loggedConn) SetReadDeadline(t time.Time) error {
	return lc.conn.SetReadDeadline(t)
}

func (lc *loggedConn) SetWriteDeadline(t time.Time) error {
	return lc.conn.SetWriteDeadline(t)
}
