package genealogy

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

// NodeSource is anything members can be read from by id. Both the
// repositories and Population satisfy it.
type NodeSource interface {
	GetMember(ctx context.Context, memberID string) (*domain.Member, error)
}

// NodeIndex addresses a member inside a Population.
type NodeIndex int32

const NoNode NodeIndex = -1

const (
	IssueDanglingChild   = "dangling-child"
	IssueParentMismatch  = "parent-mismatch"
	IssueSharedChild     = "shared-child"
	IssueCycle           = "cycle"
	IssueDanglingSponsor = "dangling-sponsor"
	IssueSelfSponsor     = "self-sponsor"
	IssueDuplicateMember = "duplicate-member"
)

// IntegrityIssue is a structural defect found while indexing or walking a
// population. Issues are reported, never repaired silently.
type IntegrityIssue struct {
	Kind     string
	MemberID string
	Detail   string
}

type node struct {
	member *domain.Member
	parent NodeIndex
	left   NodeIndex
	right  NodeIndex
}

// Population is an immutable arena of members indexed by a stable NodeIndex.
// Child links follow the LeftChildID/RightChildID slots; parent links are the
// reverse of accepted slots.
type Population struct {
	nodes  []node
	index  map[string]NodeIndex
	issues []IntegrityIssue
}

func NewPopulation(members []*domain.Member) *Population {
	p := &Population{
		nodes: make([]node, 0, len(members)),
		index: make(map[string]NodeIndex, len(members)),
	}
	for _, m := range members {
		if _, dup := p.index[m.MemberID]; dup {
			p.report(IssueDuplicateMember, m.MemberID, "second record ignored")
			continue
		}
		p.index[m.MemberID] = NodeIndex(len(p.nodes))
		p.nodes = append(p.nodes, node{member: m, parent: NoNode, left: NoNode, right: NoNode})
	}
	for i := range p.nodes {
		n := &p.nodes[i]
		n.left = p.link(NodeIndex(i), n.member.LeftChildID, domain.PositionLeft)
		n.right = p.link(NodeIndex(i), n.member.RightChildID, domain.PositionRight)
	}
	return p
}

func (p *Population) link(parent NodeIndex, childID *string, side domain.Position) NodeIndex {
	if childID == nil {
		return NoNode
	}
	parentMember := p.nodes[parent].member
	child, ok := p.index[*childID]
	if !ok {
		p.report(IssueDanglingChild, parentMember.MemberID, fmt.Sprintf("%s slot points to unknown member %s", side, *childID))
		return NoNode
	}
	c := &p.nodes[child]
	if c.parent != NoNode {
		p.report(IssueSharedChild, *childID, fmt.Sprintf("claimed by %s and %s", p.nodes[c.parent].member.MemberID, parentMember.MemberID))
		return NoNode
	}
	if c.member.ParentID == nil || *c.member.ParentID != parentMember.MemberID || c.member.Position != side {
		p.report(IssueParentMismatch, *childID, fmt.Sprintf("occupies %s slot of %s but records another placement", side, parentMember.MemberID))
	}
	c.parent = parent
	return child
}

func (p *Population) report(kind, memberID, detail string) {
	p.issues = append(p.issues, IntegrityIssue{Kind: kind, MemberID: memberID, Detail: detail})
}

func (p *Population) Len() int {
	return len(p.nodes)
}

func (p *Population) Lookup(memberID string) NodeIndex {
	if i, ok := p.index[memberID]; ok {
		return i
	}
	return NoNode
}

func (p *Population) Member(i NodeIndex) *domain.Member {
	return p.nodes[i].member
}

func (p *Population) Parent(i NodeIndex) NodeIndex { return p.nodes[i].parent }
func (p *Population) Left(i NodeIndex) NodeIndex   { return p.nodes[i].left }
func (p *Population) Right(i NodeIndex) NodeIndex  { return p.nodes[i].right }

func (p *Population) Issues() []IntegrityIssue {
	return p.issues
}

// GetMember makes a Population usable as a NodeSource.
func (p *Population) GetMember(_ context.Context, memberID string) (*domain.Member, error) {
	i := p.Lookup(memberID)
	if i == NoNode {
		return nil, fmt.Errorf("%s: %w", memberID, domain.ErrMemberNotFound)
	}
	return p.nodes[i].member, nil
}
