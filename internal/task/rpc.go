package task

import (
	"fmt"
	"net/rpc"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// Handshake is shared by the host and worker processes. A mismatch means
// the worker binary was built from a different version.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "COVERHUE_WORKER",
	MagicCookieValue: "coverhue_palette_task",
}

// pluginName is the key the worker plugin is dispensed under.
const pluginName = "task"

// Worker executes tasks.
type Worker interface {
	Execute(req Request) (Response, error)
}

// LocalWorker executes tasks in the current process.
type LocalWorker struct {
	Logger hclog.Logger
}

func (w LocalWorker) Execute(req Request) (Response, error) {
	return safeExecute(w.Logger, req)
}

// WireRequest is the gob-encoded form of Request. Histograms travel as
// packed colour/count pairs.
type WireRequest struct {
	Kind      Kind
	Name      string
	Space     colour.Kind
	Histogram []uint32
	K         int
	Pixels    []byte
	Width     int
	Height    int
	Channels  int
}

// WireResponse is the gob-encoded form of Response.
type WireResponse struct {
	Centroids []kmeans.Centroid
	K         int
	WCSS      float64
	Saliency  []byte
}

func toWire(req Request) WireRequest {
	w := WireRequest{Kind: req.Kind, Name: req.Name, Space: req.Space, K: req.K}
	switch req.Kind {
	case KindKMeans:
		w.Histogram = histogram.Pack(req.Entries)
	case KindSaliency:
		w.Pixels = req.Image.Pix
		w.Width, w.Height, w.Channels = req.Image.Width, req.Image.Height, req.Image.Channels
	}
	return w
}

func fromWire(w WireRequest) (Request, error) {
	req := Request{Kind: w.Kind, Name: w.Name, Space: w.Space, K: w.K}
	switch w.Kind {
	case KindKMeans:
		entries, err := histogram.Unpack(w.Histogram)
		if err != nil {
			return Request{}, err
		}
		req.Entries = entries
	case KindSaliency:
		img, err := raster.New(w.Pixels, w.Width, w.Height, w.Channels)
		if err != nil {
			return Request{}, err
		}
		req.Image = img
	}
	return req, nil
}

// WorkerPlugin exposes a Worker over net/rpc.
type WorkerPlugin struct {
	plugin.Plugin
	Impl Worker
}

func (p *WorkerPlugin) Server(*plugin.MuxBroker) (any, error) {
	return &WorkerRPCServer{Impl: p.Impl}, nil
}

func (p *WorkerPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &WorkerRPCClient{client: c}, nil
}

// WorkerRPCServer is the worker side of the RPC connection.
type WorkerRPCServer struct {
	Impl Worker
}

func (s *WorkerRPCServer) Execute(args WireRequest, resp *WireResponse) error {
	req, err := fromWire(args)
	if err != nil {
		return fmt.Errorf("malformed task: %w", err)
	}
	res, err := s.Impl.Execute(req)
	if err != nil {
		return err
	}
	if res.KMeans != nil {
		resp.Centroids = res.KMeans.Centroids
		resp.K = res.KMeans.K
		resp.WCSS = res.KMeans.WCSS
	}
	resp.Saliency = res.Saliency
	return nil
}

// WorkerRPCClient is the host side of the RPC connection.
type WorkerRPCClient struct {
	client *rpc.Client
}

func (c *WorkerRPCClient) Execute(req Request) (Response, error) {
	var resp WireResponse
	if err := c.client.Call("Plugin.Execute", toWire(req), &resp); err != nil {
		return Response{}, err
	}

	switch req.Kind {
	case KindKMeans:
		return Response{KMeans: &kmeans.Result{
			Centroids: kmeans.Set(resp.Centroids),
			K:         resp.K,
			WCSS:      resp.WCSS,
		}}, nil
	default:
		return Response{Saliency: resp.Saliency}, nil
	}
}

// ServeWorker serves tasks to a host process over stdio. It blocks until
// the host disconnects.
func ServeWorker(logger hclog.Logger) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginName: &WorkerPlugin{Impl: LocalWorker{Logger: logger}},
		},
		Logger: logger,
	})
}
