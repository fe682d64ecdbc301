package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Metric key prefixes used in the serialized hierarchy. Consumers without a
// schema tell metrics from children by these prefixes.
const (
	NumAwardsPrefix  = "num_awards_"
	AmtAwardedPrefix = "amt_awarded_"
	AggregateSuffix  = "aggregate"
)

// YearMetrics holds the award count and awarded amount for one year.
type YearMetrics struct {
	Year       int     `json:"year"`
	NumAwards  int     `json:"num_awards"`
	AmtAwarded float64 `json:"amt_awarded"`
}

// Metrics is the metric set attached to every node of the hierarchy.
// Years is ordered by year, descending. A brief node has no Years.
type Metrics struct {
	NumAwards  int
	AmtAwarded float64
	Years      []YearMetrics
}

// Year returns the metrics recorded for the given year.
func (m Metrics) Year(year int) (YearMetrics, bool) {
	for _, ym := range m.Years {
		if ym.Year == year {
			return ym, true
		}
	}
	return YearMetrics{}, false
}

// Aggregate returns a copy holding only the all-time totals.
func (m Metrics) Aggregate() Metrics {
	return Metrics{NumAwards: m.NumAwards, AmtAwarded: m.AmtAwarded}
}

// Clone returns a deep copy.
func (m Metrics) Clone() Metrics {
	out := m.Aggregate()
	if m.Years != nil {
		out.Years = make([]YearMetrics, len(m.Years))
		copy(out.Years, m.Years)
	}
	return out
}

// Node is one directorate, division or program in the funding hierarchy.
type Node struct {
	Metrics  Metrics
	Children Tree
}

// NamedNode pairs a child name with its node.
type NamedNode struct {
	Name string
	Node Node
}

// Tree is an ordered mapping from name to node. The top-level tree is keyed
// by directorate; each node's Children is keyed by division or program.
type Tree []NamedNode

// Names returns the keys of the tree in order.
func (t Tree) Names() []string {
	names := make([]string, len(t))
	for i, nn := range t {
		names[i] = nn.Name
	}
	return names
}

// Get looks up a child by name.
func (t Tree) Get(name string) (Node, bool) {
	for _, nn := range t {
		if nn.Name == name {
			return nn.Node, true
		}
	}
	return Node{}, false
}

// Walk visits every node depth-first in order. path holds the names from the
// root down to and including the visited node.
func (t Tree) Walk(fn func(path []string, node Node)) {
	t.walk(nil, fn)
}

func (t Tree) walk(prefix []string, fn func(path []string, node Node)) {
	for _, nn := range t {
		path := append(append([]string(nil), prefix...), nn.Name)
		fn(path, nn.Node)
		nn.Node.Children.walk(path, fn)
	}
}

// MarshalJSON writes the node as a single object: aggregate metrics, per-year
// metrics (newest first), then children in order.
func (n Node) MarshalJSON() ([]byte, error) {
	obj := newObjectWriter()
	obj.field(NumAwardsPrefix+AggregateSuffix, n.Metrics.NumAwards)
	obj.field(AmtAwardedPrefix+AggregateSuffix, n.Metrics.AmtAwarded)
	for _, ym := range n.Metrics.Years {
		suffix := strconv.Itoa(ym.Year)
		obj.field(NumAwardsPrefix+suffix, ym.NumAwards)
		obj.field(AmtAwardedPrefix+suffix, ym.AmtAwarded)
	}
	for _, child := range n.Children {
		obj.field(child.Name, child.Node)
	}
	return obj.bytes()
}

// MarshalJSON writes the tree as an object keyed by name, preserving order.
func (t Tree) MarshalJSON() ([]byte, error) {
	obj := newObjectWriter()
	for _, nn := range t {
		obj.field(nn.Name, nn.Node)
	}
	return obj.bytes()
}

// UnmarshalJSON reads a node document, keeping child order as written.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decodeNode(dec, n)
}

// UnmarshalJSON reads a tree document, keeping key order as written.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root Node
	if err := decodeNode(dec, &root); err != nil {
		return err
	}
	if root.Metrics.NumAwards != 0 || root.Metrics.AmtAwarded != 0 || len(root.Metrics.Years) > 0 {
		return fmt.Errorf("unexpected metric keys at tree root")
	}
	*t = root.Children
	return nil
}

func decodeNode(dec *json.Decoder, n *Node) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	years := map[int]*YearMetrics{}
	*n = Node{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		if isMetricKey(key) {
			var num json.Number
			if err := dec.Decode(&num); err != nil {
				return fmt.Errorf("error decoding metric %q: %w", key, err)
			}
			if err := applyMetric(&n.Metrics, years, key, num); err != nil {
				return err
			}
			continue
		}

		var child Node
		if err := decodeNode(dec, &child); err != nil {
			return fmt.Errorf("error decoding %q: %w", key, err)
		}
		n.Children = append(n.Children, NamedNode{Name: key, Node: child})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	if len(years) > 0 {
		n.Metrics.Years = make([]YearMetrics, 0, len(years))
		for _, ym := range years {
			n.Metrics.Years = append(n.Metrics.Years, *ym)
		}
		sort.Slice(n.Metrics.Years, func(i, j int) bool {
			return n.Metrics.Years[i].Year > n.Metrics.Years[j].Year
		})
	}
	return nil
}

func isMetricKey(key string) bool {
	return strings.HasPrefix(key, NumAwardsPrefix) || strings.HasPrefix(key, AmtAwardedPrefix)
}

func applyMetric(m *Metrics, years map[int]*YearMetrics, key string, num json.Number) error {
	isCount := strings.HasPrefix(key, NumAwardsPrefix)
	suffix := strings.TrimPrefix(strings.TrimPrefix(key, NumAwardsPrefix), AmtAwardedPrefix)

	var count int64
	var amount float64
	var err error
	if isCount {
		count, err = num.Int64()
	} else {
		amount, err = num.Float64()
	}
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", key, err)
	}

	if suffix == AggregateSuffix {
		if isCount {
			m.NumAwards = int(count)
		} else {
			m.AmtAwarded = amount
		}
		return nil
	}

	year, err := strconv.Atoi(suffix)
	if err != nil {
		return fmt.Errorf("invalid metric key %q", key)
	}
	ym, ok := years[year]
	if !ok {
		ym = &YearMetrics{Year: year}
		years[year] = ym
	}
	if isCount {
		ym.NumAwards = int(count)
	} else {
		ym.AmtAwarded = amount
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// objectWriter builds a JSON object with keys in insertion order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value interface{}) {
	if w.err != nil {
		return
	}
	k, err := marshalRaw(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := marshalRaw(value)
	if err != nil {
		w.err = err
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
	w.n++
}

// marshalRaw encodes v without escaping &, < and >, which appear in NSF names.
func marshalRaw(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
