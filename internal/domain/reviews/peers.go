package reviews

import "math/rand/v2"

// PeerCount resolves the number of peer reviews per reviewee for a cycle.
func PeerCount(c Components, fallback int) int {
	if c.PeerCount != nil {
		return *c.PeerCount
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultPeerCount
}

// PlanAssignments generates the assignments for a cycle from the active
// users. Every participant reviews themself and is reviewed by their
// supervisor when that supervisor is active. Up to peerCount peers are drawn
// at random from the same organization, never the participant, their
// supervisor or anyone they supervise.
func PlanAssignments(participants []Participant, peerCount int, rng *rand.Rand) []PlannedAssignment {
	active := make(map[string]Participant, len(participants))
	byOrg := map[string][]string{}
	reports := map[string]map[string]bool{}
	for _, p := range participants {
		active[p.ID] = p
		byOrg[p.OrganizationID] = append(byOrg[p.OrganizationID], p.ID)
	}
	for _, p := range participants {
		if p.SupervisorID == "" {
			continue
		}
		if reports[p.SupervisorID] == nil {
			reports[p.SupervisorID] = map[string]bool{}
		}
		reports[p.SupervisorID][p.ID] = true
	}

	var out []PlannedAssignment
	for _, p := range participants {
		out = append(out, PlannedAssignment{ReviewerID: p.ID, RevieweeID: p.ID, ReviewType: TypeSelf})
		if _, ok := active[p.SupervisorID]; ok && p.SupervisorID != p.ID {
			out = append(out, PlannedAssignment{ReviewerID: p.SupervisorID, RevieweeID: p.ID, ReviewType: TypeSupervisor})
		}
		if peerCount <= 0 || p.OrganizationID == "" {
			continue
		}
		var candidates []string
		for _, id := range byOrg[p.OrganizationID] {
			if id == p.ID || id == p.SupervisorID || reports[p.ID][id] {
				continue
			}
			candidates = append(candidates, id)
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if len(candidates) > peerCount {
			candidates = candidates[:peerCount]
		}
		for _, id := range candidates {
			out = append(out, PlannedAssignment{ReviewerID: id, RevieweeID: p.ID, ReviewType: TypePeer})
		}
	}
	return out
}

// Reviewers returns the distinct reviewer ids of a plan in first-seen order.
func Reviewers(plan []PlannedAssignment) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range plan {
		if seen[a.ReviewerID] {
			continue
		}
		seen[a.ReviewerID] = true
		out = append(out, a.ReviewerID)
	}
	return out
}
