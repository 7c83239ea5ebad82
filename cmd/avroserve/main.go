// Command avroserve is a minimal HTTP front end over the container
// reader: it streams a file's decoded records as newline-delimited
// JSON and exposes Prometheus metrics.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/cloudmere/avro"
	"github.com/cloudmere/avro/avroio"
	"github.com/cloudmere/avro/cache"
	"github.com/cloudmere/avro/cli"
	"github.com/cloudmere/avro/cli/logflags"
	"github.com/cloudmere/avro/metrics"
	"github.com/cloudmere/avro/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type server struct {
	root    *storage.URI
	engine  storage.Engine
	rec     *metrics.Recorder
	schemas *cache.Cache
	token   string
}

func run(args []string) error {
	fs := flag.NewFlagSet("avroserve", flag.ExitOnError)
	var cliFlags cli.Flags
	var logFlags logflags.Flags
	var listen, root, token, schemaCache string
	cliFlags.SetFlags(fs)
	logFlags.SetFlags(fs)
	fs.StringVar(&listen, "listen", ":8080", "listen address")
	fs.StringVar(&root, "root", ".", "base URI records are served from")
	fs.StringVar(&token, "token", "", "key that the bearer JWT required on non-GET requests must verify against (empty disables auth)")
	fs.StringVar(&schemaCache, "schema-cache", "", `schema cache backend: "lru" (default) or "redis://host:port"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, _, err := cliFlags.Init(); err != nil {
		return err
	}
	rootURI, err := storage.ParseURI(root)
	if err != nil {
		return err
	}
	rec := metrics.New(prometheus.DefaultRegisterer)
	schemas, err := cache.Open(schemaCache, rec)
	if err != nil {
		return err
	}
	s := &server{
		root:    rootURI,
		engine:  storage.NewEngine(),
		rec:     rec,
		schemas: schemas,
		token:   token,
	}

	r := mux.NewRouter()
	r.HandleFunc("/files/{path:.*}/records", s.handleRecords).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	handler := cors.AllowAll().Handler(s.authMiddleware(r))
	return http.ListenAndServe(listen, handler)
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if s.token == "" || req.Method == http.MethodGet {
			next.ServeHTTP(w, req)
			return
		}
		authz := req.Header.Get("Authorization")
		tokStr := strings.TrimPrefix(authz, "Bearer ")
		if tokStr == authz {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(tokStr, func(*jwt.Token) (interface{}, error) {
			return []byte(s.token), nil
		})
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (s *server) handleRecords(w http.ResponseWriter, req *http.Request) {
	path := mux.Vars(req)["path"]
	u := s.root.AppendPathString(path)

	rc, err := s.engine.Get(req.Context(), u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer rc.Close()

	r, err := avroio.NewReader(rc, avroio.WithMetrics(s.rec), avroio.WithSchemaCache(s.schemas))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Headers are already sent; best effort is a trailing
			// error line rather than an HTTP status at this point.
			fmt.Fprintf(w, `{"error":%q}`+"\n", err.Error())
			return
		}
		if err := enc.Encode(toJSONish(v)); err != nil {
			return
		}
	}
}

// toJSONish renders an avro.Value as plain Go values so
// encoding/json can marshal it. This is presentation logic local to
// the HTTP surface, not a schema-driven canonical JSON encoder.
func toJSONish(v avro.Value) interface{} {
	switch t := v.(type) {
	case avro.NullValue:
		return nil
	case avro.BoolValue:
		return bool(t)
	case avro.IntValue:
		return int32(t)
	case avro.LongValue:
		return int64(t)
	case avro.FloatValue:
		return float32(t)
	case avro.DoubleValue:
		return float64(t)
	case avro.StringValue:
		return string(t)
	case avro.BytesValue:
		return []byte(t)
	case avro.FixedValue:
		return []byte(t)
	case avro.EnumValue:
		return t.Symbol
	case avro.ArrayValue:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = toJSONish(e)
		}
		return out
	case *avro.MapValue:
		out := make(map[string]interface{}, len(t.Keys))
		for i, k := range t.Keys {
			out[k] = toJSONish(t.Values[i])
		}
		return out
	case avro.RecordValue:
		out := make(map[string]interface{}, len(t))
		for _, f := range t {
			out[f.Name] = toJSONish(f.Value)
		}
		return out
	case avro.UnionValue:
		return toJSONish(t.Inner)
	default:
		return nil
	}
}
