// Package traverse walks an enrollment document once, in document order,
// assigning surrogate ids and releasing each subtree as soon as it has been
// handed to a Visitor.
package traverse

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ppiankov/iasflat/internal/extract"
	"github.com/ppiankov/iasflat/internal/keys"
	"github.com/ppiankov/iasflat/internal/xmlstream"
	"github.com/sirupsen/logrus"
)

// ctxCheckInterval is how many element events pass between cancellation checks
const ctxCheckInterval = 1024

// Visitor receives each entity as soon as the traversal has enough of it.
// Nodes passed to a visitor are released when the call returns and must not
// be retained.
type Visitor interface {
	VisitFileMetaData(doc *Document, n *xmlstream.Node) error
	VisitSender(doc *Document, n *xmlstream.Node) error
	VisitSponsor(s *Sponsor) error
	VisitContract(c *Contract) error
	VisitMember(m *Member) error
}

// Stats summarizes one traversal
type Stats struct {
	Sponsors  int64
	Contracts int64
	Members   int64
	Benefits  int64
	Events    int64
	PeakNodes int
}

// Engine drives a Visitor over a document cursor
type Engine struct {
	keys *keys.Allocator
	log  logrus.FieldLogger
}

// NewEngine creates an engine that draws ids from alloc
func NewEngine(alloc *keys.Allocator, log logrus.FieldLogger) *Engine {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Engine{keys: alloc, log: log}
}

// walk is the state of one traversal: the open ancestor chain
type walk struct {
	e   *Engine
	cur *xmlstream.Cursor
	v   Visitor
	doc Document

	sponsor         *Sponsor
	sponsorVisited  bool
	contract        *Contract
	contractVisited bool
	member          *Member

	stats Stats
}

// Run traverses the whole document. It stops at the first error; nothing it
// has handed to the visitor is retracted.
func (e *Engine) Run(ctx context.Context, cur *xmlstream.Cursor, v Visitor) (Stats, error) {
	w := &walk{e: e, cur: cur, v: v}

	for {
		if w.stats.Events%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return w.stats, err
			}
		}

		ev, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.stats, err
		}
		w.stats.Events++

		switch ev.Kind {
		case xmlstream.StartElement:
			err = w.start(ev.Node)
		case xmlstream.EndElement:
			err = w.end(ev.Node)
		}
		if err != nil {
			return w.stats, err
		}
	}

	w.stats.PeakNodes = cur.PeakLive()

	fields := logrus.Fields{"events": w.stats.Events, "bytes": cur.Offset()}
	for k, last := range e.keys.Snapshot() {
		fields["last_"+k.String()+"_id"] = last
	}
	e.log.WithFields(fields).Debug("traversal complete")
	return w.stats, nil
}

func (w *walk) start(n *xmlstream.Node) error {
	switch {
	case w.member != nil:
		if n.Name == elemBenefit && w.isMemberBenefit(n) {
			id := w.e.keys.Next(keys.Benefit)
			w.member.benefits = append(w.member.benefits, Benefit{ID: id, Node: n})
			w.stats.Benefits++
		}

	case n.Name == elemMember && w.contract != nil:
		if err := w.visitContract(); err != nil {
			return err
		}
		w.member = &Member{
			ID:       w.e.keys.Next(keys.Member),
			Contract: w.contract,
			Node:     n,
		}

	case n.Name == elemContract && w.sponsor != nil && w.contract == nil:
		if err := w.visitSponsor(); err != nil {
			return err
		}
		w.contract = &Contract{
			ID:      w.e.keys.Next(keys.Contract),
			Sponsor: w.sponsor,
			Node:    n,
		}
		w.contractVisited = false

	case n.Name == elemSponsor && w.sponsor == nil:
		w.sponsor = &Sponsor{
			ID:   w.e.keys.Next(keys.Sponsor),
			Doc:  &w.doc,
			Node: n,
		}
		w.sponsorVisited = false
	}
	return nil
}

func (w *walk) end(n *xmlstream.Node) error {
	switch {
	case w.member != nil && n == w.member.Node:
		m := w.member
		m.UPID = extract.Text(n, "UPID")
		if err := w.v.VisitMember(m); err != nil {
			return fmt.Errorf("member %d: %w", m.ID, err)
		}
		w.cur.Release(n)
		w.member = nil
		w.stats.Members++

	case w.contract != nil && n == w.contract.Node:
		if err := w.visitContract(); err != nil {
			return err
		}
		w.cur.Release(n)
		w.contract = nil
		w.stats.Contracts++

	case w.sponsor != nil && n == w.sponsor.Node:
		if err := w.visitSponsor(); err != nil {
			return err
		}
		w.e.log.WithFields(logrus.Fields{
			"sponsor_id": w.sponsor.ID,
			"contracts":  w.stats.Contracts,
			"members":    w.stats.Members,
			"live_nodes": w.cur.Live(),
		}).Debug("sponsor released")
		w.cur.Release(n)
		w.sponsor = nil
		w.stats.Sponsors++

	case w.sponsor == nil && n.Name == elemFileMetaData:
		w.doc.FileName = extract.Text(n, "FileName")
		if err := w.v.VisitFileMetaData(&w.doc, n); err != nil {
			return fmt.Errorf("file metadata: %w", err)
		}
		w.cur.Release(n)

	case w.sponsor == nil && n.Name == elemSender:
		if _, err := extract.RequireText(n, elemSender, "Name"); err != nil {
			return err
		}
		w.doc.SenderTaxID = extract.Text(n, "TaxID")
		if err := w.v.VisitSender(&w.doc, n); err != nil {
			return fmt.Errorf("sender: %w", err)
		}
		w.cur.Release(n)
	}
	return nil
}

// visitSponsor hands the sponsor header to the visitor once
func (w *walk) visitSponsor() error {
	if w.sponsorVisited {
		return nil
	}
	s := w.sponsor
	s.Name = extract.Text(s.Node, "Name")
	s.GroupIdentifier = extract.Text(s.Node, "GroupIdentifier")
	w.sponsorVisited = true

	if err := w.v.VisitSponsor(s); err != nil {
		return fmt.Errorf("sponsor %d: %w", s.ID, err)
	}
	return nil
}

// visitContract hands the contract header to the visitor once
func (w *walk) visitContract() error {
	if w.contractVisited {
		return nil
	}
	c := w.contract
	tt, err := extract.RequireText(c.Node, elemContract, "Metadata/TransactionType")
	if err != nil {
		return fmt.Errorf("contract %d: %w", c.ID, err)
	}
	c.TransactionType = tt
	c.SubscriberID = extract.Text(c.Node, "SubscriberID")
	w.contractVisited = true

	if err := w.v.VisitContract(c); err != nil {
		return fmt.Errorf("contract %d: %w", c.ID, err)
	}
	return nil
}

// isMemberBenefit reports whether n sits at Benefits/Benefit directly below the open member
func (w *walk) isMemberBenefit(n *xmlstream.Node) bool {
	p := n.Parent()
	return p != nil && p.Name == elemBenefits && p.Parent() == w.member.Node
}
