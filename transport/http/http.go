// Package httptransport serves the engine over HTTP.
package httptransport

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/handlers/dispatch"
	"github.com/vizee/gsoap/handlers/ratelimit"
	"github.com/vizee/gsoap/handlers/rpc"
	"github.com/vizee/gsoap/internal/ioutil"
	"github.com/vizee/gsoap/log"
	"github.com/vizee/gsoap/soap"
)

const TransportName = "http"

// HeaderPropertyPrefix prefixes request headers copied into properties.
const HeaderPropertyPrefix = "header:"

type Server struct {
	engine *engine.Engine
	router *httprouter.Router

	// MaxBodySize bounds request bodies; zero means unlimited.
	MaxBodySize int64
	// CopyHeaders lists request headers exposed to handlers as properties.
	CopyHeaders []string
}

func New(e *engine.Engine, maxBodySize int64) *Server {
	s := &Server{
		engine:      e,
		router:      httprouter.New(),
		MaxBodySize: maxBodySize,
	}
	s.router.POST("/services", s.handleInvoke)
	s.router.POST("/services/:service", s.handleInvoke)
	s.router.GET("/services", s.handleList)
	s.router.GET("/services/:service", s.handleDescribe)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Debugf("Route %s %s", req.Method, req.URL.Path)
	s.router.ServeHTTP(w, req)
}

// Handle mounts h next to the service routes, e.g. a metrics endpoint.
func (s *Server) Handle(method string, path string, h http.Handler) {
	s.router.Handler(method, path, h)
}

func (s *Server) properties(req *http.Request) map[string]any {
	props := map[string]any{
		ratelimit.ClientKeyProperty: req.RemoteAddr,
	}
	if action := req.Header.Get("SOAPAction"); action != "" {
		props[dispatch.SOAPActionProperty] = action
	}
	for _, name := range s.CopyHeaders {
		if v := req.Header.Get(name); v != "" {
			props[HeaderPropertyPrefix+http.CanonicalHeaderKey(name)] = v
		}
	}
	return props
}

func (s *Server) handleInvoke(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	codec := s.engine.Codec(req.Header.Get("Content-Type"))
	if codec == nil {
		http.Error(w, http.StatusText(http.StatusUnsupportedMediaType), http.StatusUnsupportedMediaType)
		return
	}
	body, err := ioutil.ReadLimited(req.Body, req.ContentLength, s.MaxBodySize)
	if err != nil {
		if errors.Is(err, ioutil.ErrTooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		}
		return
	}

	reply, fault, err := s.engine.Invoke(req.Context(), &engine.Request{
		Transport:  TransportName,
		Service:    ps.ByName("service"),
		Codec:      codec,
		Body:       body,
		Properties: s.properties(req),
	})
	if err != nil {
		log.Errorf("Invoke %s: %v", req.URL.Path, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if reply == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", codec.ContentType())
	if fault != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
	w.Write(reply)
}

func endpoint(req *http.Request, service string) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/services/%s", scheme, req.Host, service)
}

func (s *Server) handleDescribe(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	service := ps.ByName("service")
	props := s.properties(req)
	props[rpc.EndpointProperty] = endpoint(req, service)
	doc, err := s.engine.DescribeService(req.Context(), TransportName, service, props)
	if err != nil {
		status := http.StatusInternalServerError
		var f *soap.Fault
		if errors.As(err, &f) && f.Subcode == soap.SubcodeNoService {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Errorf("Describe %s: %v", service, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	w.Write(data)
}

type serviceList struct {
	XMLName  xml.Name      `xml:"services"`
	Services []serviceItem `xml:"service"`
}

type serviceItem struct {
	Name      string `xml:"name,attr"`
	Namespace string `xml:"namespace,attr,omitempty"`
	Enabled   bool   `xml:"enabled,attr"`
	Endpoint  string `xml:"endpoint,attr"`
}

func (s *Server) handleList(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var list serviceList
	for _, svc := range s.engine.Services() {
		list.Services = append(list.Services, serviceItem{
			Name:      svc.Name(),
			Namespace: svc.Desc().Namespace,
			Enabled:   svc.Enabled(),
			Endpoint:  endpoint(req, svc.Name()),
		})
	}
	sort.Slice(list.Services, func(i, j int) bool {
		return strings.Compare(list.Services[i].Name, list.Services[j].Name) < 0
	})
	data, err := xml.MarshalIndent(&list, "", "  ")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	w.Write(data)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("http transport listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
