package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"llstore/internal/daemon"
	"llstore/internal/logging"
	"llstore/internal/task"
)

const opTimeout = 30 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc")}
	if err := rpcServer.RegisterName("Store", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
}

func (s *service) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func (s *service) Install(req InstallRequest, resp *InstallResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	taskID, created, err := s.daemon.Enqueue(ctx, daemon.EnqueueEntry{
		AppID:   req.AppID,
		Version: req.Version,
		Force:   req.Force,
	})
	if err != nil {
		return err
	}
	resp.TaskID = taskID
	resp.Created = created
	return nil
}

func (s *service) InstallBatch(req InstallBatchRequest, resp *InstallBatchResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	entries := make([]daemon.EnqueueEntry, 0, len(req.Items))
	for _, item := range req.Items {
		entries = append(entries, daemon.EnqueueEntry{
			AppID:   item.AppID,
			Version: item.Version,
			Force:   item.Force,
		})
	}
	resp.TaskIDs = s.daemon.EnqueueBatch(ctx, entries)
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	snap := s.daemon.QueueSnapshot()
	resp.Current = snap.Current
	resp.Queue = flatten(snap.Queue)
	resp.History = flatten(snap.History)
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	resp.Removed = s.daemon.RemoveFromQueue(req.TaskID)
	return nil
}

func (s *service) ClearHistory(_ ClearHistoryRequest, resp *ClearHistoryResponse) error {
	s.daemon.ClearHistory()
	resp.Cleared = true
	return nil
}

func (s *service) AppStatus(req AppStatusRequest, resp *AppStatusResponse) error {
	resp.Task = s.daemon.AppStatus(req.AppID)
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	message, err := s.daemon.CancelInstall(req.AppID)
	if err != nil {
		resp.Cancelled = false
		resp.Message = err.Error()
		return nil
	}
	resp.Cancelled = true
	resp.Message = message
	return nil
}

func (s *service) Installed(_ InstalledRequest, resp *InstalledResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	apps, err := s.daemon.Installed(ctx)
	if err != nil {
		return err
	}
	resp.Apps = apps
	return nil
}

func (s *service) Updates(_ UpdatesRequest, resp *UpdatesResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	found, err := s.daemon.Updates(ctx)
	if err != nil {
		return err
	}
	resp.Updates = found
	return nil
}

func (s *service) Search(req SearchRequest, resp *SearchResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	results, err := s.daemon.Search(ctx, req.Keyword)
	if err != nil {
		return err
	}
	resp.Results = results
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockPath
	resp.StateDBPath = status.StateDBPath
	resp.QueueStats = status.QueueStats
	resp.Dependencies = status.Dependencies
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC")
	// Delay so the response flushes before the process begins shutdown.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.daemon.Stop()
	}()
	resp.Stopped = true
	return nil
}

func (s *service) Prune(_ PruneRequest, resp *PruneResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	report, err := s.daemon.Prune(ctx)
	if err != nil {
		return err
	}
	resp.Report = report
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.daemon.TestNotification(ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "notification sent"
	return nil
}

func flatten(tasks []*task.InstallTask) []TaskItem {
	items := make([]TaskItem, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			items = append(items, *t)
		}
	}
	return items
}
