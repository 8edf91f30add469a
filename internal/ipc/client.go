package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Install queues one install.
func (c *Client) Install(appID, version string, force bool) (*InstallResponse, error) {
	var resp InstallResponse
	req := InstallRequest{AppID: appID, Version: version, Force: force}
	if err := c.client.Call("Store.Install", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstallBatch queues several installs.
func (c *Client) InstallBatch(items []InstallRequest) (*InstallBatchResponse, error) {
	var resp InstallBatchResponse
	if err := c.client.Call("Store.InstallBatch", InstallBatchRequest{Items: items}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns the queue snapshot.
func (c *Client) QueueList() (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Store.QueueList", QueueListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove removes a pending task by id.
func (c *Client) QueueRemove(taskID string) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Store.QueueRemove", QueueRemoveRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearHistory drops all finished tasks.
func (c *Client) ClearHistory() (*ClearHistoryResponse, error) {
	var resp ClearHistoryResponse
	if err := c.client.Call("Store.ClearHistory", ClearHistoryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AppStatus fetches the most relevant task for an app.
func (c *Client) AppStatus(appID string) (*AppStatusResponse, error) {
	var resp AppStatusResponse
	if err := c.client.Call("Store.AppStatus", AppStatusRequest{AppID: appID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel stops an app's install.
func (c *Client) Cancel(appID string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("Store.Cancel", CancelRequest{AppID: appID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Installed fetches the installed-app snapshot.
func (c *Client) Installed() (*InstalledResponse, error) {
	var resp InstalledResponse
	if err := c.client.Call("Store.Installed", InstalledRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Updates fetches available upgrades.
func (c *Client) Updates() (*UpdatesResponse, error) {
	var resp UpdatesResponse
	if err := c.client.Call("Store.Updates", UpdatesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search queries the catalog.
func (c *Client) Search(keyword string) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.client.Call("Store.Search", SearchRequest{Keyword: keyword}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Store.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Store.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Prune removes unused package layers.
func (c *Client) Prune() (*PruneResponse, error) {
	var resp PruneResponse
	if err := c.client.Call("Store.Prune", PruneRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Store.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
