package catalog

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jlaffaye/ftp"
)

// Defaults for the FTP store.
const (
	DefaultFTPPort = 21
	DefaultTimeout = 30 * time.Second
)

// FTPDialer opens authenticated sessions against the producer's FTP server.
type FTPDialer struct {
	Host      string
	Port      int
	User      string
	Password  string
	Directory string
	Timeout   time.Duration
}

// Dial connects, authenticates, and optionally changes into the configured
// directory. On any failure no session is left open.
func (d *FTPDialer) Dial() (Session, error) {
	port := d.Port
	if port == 0 {
		port = DefaultFTPPort
	}
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	addr := net.JoinHostPort(d.Host, strconv.Itoa(port))
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrNetwork, addr, err)
	}

	if err := conn.Login(d.User, d.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	if d.Directory != "" {
		if err := conn.ChangeDir(d.Directory); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("%w: change directory %q: %v", ErrNetwork, d.Directory, err)
		}
	}

	return &ftpSession{conn: conn}, nil
}

type ftpSession struct {
	conn *ftp.ServerConn
}

func (s *ftpSession) List() ([]string, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("%w: no open session", ErrListing)
	}

	entries, err := s.conn.List("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListing, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type == ftp.EntryTypeFile {
			names = append(names, entry.Name)
		}
	}
	return FilterListing(names), nil
}

func (s *ftpSession) Download(name string) (string, error) {
	if s.conn == nil {
		return "", fmt.Errorf("%w: no open session", ErrTransfer)
	}

	resp, err := s.conn.Retr(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTransfer, name, err)
	}

	data, err := io.ReadAll(resp)
	if cerr := resp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTransfer, name, err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrDecode, name)
	}
	return string(data), nil
}

func (s *ftpSession) Close() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	return conn.Quit()
}
