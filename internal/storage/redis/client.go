// Package redis holds a small RESP client and the rate limit window store
// built on it. Only the handful of commands the limiter needs are supported.
package redis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

const defaultOpTimeout = 2 * time.Second

type Client struct {
	addr     string
	password string
	db       int

	pool chan net.Conn
	mu   sync.Mutex
}

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func New(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}

	c := &Client{
		addr:     cfg.Addr,
		password: cfg.Password,
		db:       cfg.DB,
		pool:     make(chan net.Conn, cfg.PoolSize),
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		select {
		case conn := <-c.pool:
			_ = conn.Close()
		default:
			return nil
		}
	}
}

func (c *Client) Ping(ctx context.Context) error {
	r, err := c.do(ctx, "PING")
	if err != nil {
		return err
	}
	if r.typ != respSimpleString || r.str != "PONG" {
		return fmt.Errorf("unexpected PING response: %s", r.String())
	}
	return nil
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.doInt(ctx, "INCR", key)
}

// PExpire sets a millisecond TTL on key. It reports false when the key does not exist.
func (c *Client) PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	n, err := c.doInt(ctx, "PEXPIRE", key, strconv.FormatInt(ms, 10))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// PTTL returns the remaining TTL of key. Redis answers -1 for a key without
// expiry and -2 for a missing key; both come back as negative durations.
func (c *Client) PTTL(ctx context.Context, key string) (time.Duration, error) {
	n, err := c.doInt(ctx, "PTTL", key)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return time.Duration(n), nil
	}
	return time.Duration(n) * time.Millisecond, nil
}

func (c *Client) doInt(ctx context.Context, args ...string) (int64, error) {
	r, err := c.do(ctx, args...)
	if err != nil {
		return 0, err
	}
	if r.typ != respInteger {
		return 0, fmt.Errorf("unexpected %s response: %s", args[0], r.String())
	}
	return r.num, nil
}

type pooledConn struct {
	net.Conn
	rw *bufio.ReadWriter
}

func (c *Client) acquire(ctx context.Context) (*pooledConn, error) {
	select {
	case conn := <-c.pool:
		return &pooledConn{Conn: conn, rw: newReadWriter(conn)}, nil
	default:
	}

	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}

	pc := &pooledConn{Conn: conn, rw: newReadWriter(conn)}
	if err := c.handshake(ctx, pc); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return pc, nil
}

// release returns a healthy connection to the pool. Connections that saw an
// error are closed since their read buffer may hold a partial reply.
func (c *Client) release(pc *pooledConn, opErr error) {
	if opErr != nil {
		_ = pc.Close()
		return
	}
	select {
	case c.pool <- pc.Conn:
	default:
		_ = pc.Close()
	}
}

func (c *Client) handshake(ctx context.Context, pc *pooledConn) error {
	setDeadline(ctx, pc)

	if c.password != "" {
		if _, err := roundTrip(pc.rw, "AUTH", c.password); err != nil {
			return fmt.Errorf("redis auth: %w", err)
		}
	}
	if c.db != 0 {
		if _, err := roundTrip(pc.rw, "SELECT", strconv.Itoa(c.db)); err != nil {
			return fmt.Errorf("redis select %d: %w", c.db, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, args ...string) (r resp, err error) {
	if len(args) == 0 {
		return resp{}, errors.New("redis: empty command")
	}

	pc, err := c.acquire(ctx)
	if err != nil {
		return resp{}, err
	}
	defer func() { c.release(pc, err) }()

	setDeadline(ctx, pc)
	return roundTrip(pc.rw, args...)
}

func setDeadline(ctx context.Context, conn net.Conn) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		return
	}
	_ = conn.SetDeadline(time.Now().Add(defaultOpTimeout))
}

func newReadWriter(conn net.Conn) *bufio.ReadWriter {
	return bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
}

func roundTrip(rw *bufio.ReadWriter, args ...string) (resp, error) {
	if err := writeArray(rw.Writer, args...); err != nil {
		return resp{}, err
	}
	if err := rw.Flush(); err != nil {
		return resp{}, err
	}
	r, err := readResp(rw.Reader)
	if err != nil {
		return resp{}, err
	}
	if r.typ == respError {
		return resp{}, r.err
	}
	return r, nil
}

func writeArray(w *bufio.Writer, args ...string) error {
	if _, err := fmt.Fprintf(w, "*%d\r\n", len(args)); err != nil {
		return err
	}
	for _, arg := range args {
		if _, err := fmt.Fprintf(w, "$%d\r\n%s\r\n", len(arg), arg); err != nil {
			return err
		}
	}
	return nil
}

type respType byte

const (
	respSimpleString respType = '+'
	respError        respType = '-'
	respInteger      respType = ':'
	respBulkString   respType = '$'
)

type resp struct {
	typ respType
	str string
	num int64
	err error
}

func (r resp) String() string {
	switch r.typ {
	case respSimpleString:
		return "+" + r.str
	case respInteger:
		return ":" + strconv.FormatInt(r.num, 10)
	case respBulkString:
		return "$" + r.str
	case respError:
		if r.err != nil {
			return "-" + r.err.Error()
		}
		return "-ERR"
	default:
		return "?"
	}
}

func readLine(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", errors.New("redis: invalid line ending")
	}
	return line[:len(line)-2], nil
}

func readResp(rd *bufio.Reader) (resp, error) {
	b, err := rd.ReadByte()
	if err != nil {
		return resp{}, err
	}

	line, err := readLine(rd)
	if err != nil {
		return resp{}, err
	}

	switch respType(b) {
	case respSimpleString:
		return resp{typ: respSimpleString, str: line}, nil
	case respError:
		return resp{typ: respError, err: errors.New(line)}, nil
	case respInteger:
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return resp{}, err
		}
		return resp{typ: respInteger, num: n}, nil
	case respBulkString:
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return resp{}, err
		}
		if n == -1 {
			return resp{typ: respBulkString}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return resp{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return resp{}, errors.New("redis: invalid bulk string ending")
		}
		return resp{typ: respBulkString, str: string(buf[:n])}, nil
	default:
		return resp{}, fmt.Errorf("redis: unsupported response type %q", b)
	}
}
