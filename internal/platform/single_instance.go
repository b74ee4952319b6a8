package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	showCommand    = "show"
	handoffTimeout = 2 * time.Second
)

// InstanceGuard holds the single-instance lock. While held it accepts
// "show" requests from later launches.
type InstanceGuard struct {
	listener net.Listener
	address  string

	mu     sync.Mutex
	onShow func()
	wg     sync.WaitGroup
	logger *slog.Logger
}

// AcquireSingleInstance attempts to bind a deterministic localhost port.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := instanceAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	guard := &InstanceGuard{listener: listener, address: address, logger: slog.Default()}
	guard.wg.Add(1)
	go guard.serve()
	return guard, nil
}

// OnShow registers the callback run when another launch asks this one to show itself.
func (guard *InstanceGuard) OnShow(callback func()) {
	guard.mu.Lock()
	guard.onShow = callback
	guard.mu.Unlock()
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	guard.wg.Wait()
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// SignalShow asks the running instance of appName to bring its window forward.
func SignalShow(appName string) error {
	conn, err := net.DialTimeout("tcp", instanceAddress(appName), handoffTimeout)
	if err != nil {
		return fmt.Errorf("dial running instance: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(handoffTimeout))
	if _, err := fmt.Fprintln(conn, showCommand); err != nil {
		return fmt.Errorf("send show: %w", err)
	}
	return nil
}

func (guard *InstanceGuard) serve() {
	defer guard.wg.Done()
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				guard.logger.Warn("single instance accept failed", "error", err)
			}
			return
		}
		guard.handle(conn)
	}
}

func (guard *InstanceGuard) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(handoffTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	if strings.TrimSpace(line) != showCommand {
		guard.logger.Debug("ignoring unknown instance command", "command", strings.TrimSpace(line))
		return
	}
	guard.mu.Lock()
	callback := guard.onShow
	guard.mu.Unlock()
	if callback != nil {
		callback()
	}
}

func instanceAddress(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
