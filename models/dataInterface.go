package models

import "bitbucket.org/agencydesk/backoffice_backend/utils"

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

// key
func (w Workspace) GetId() int {
	return w.ID
}

func (w Workspace) GetDefault(id int) Data {
	return Workspace{
		ID:       id,
		Name:     "Unknown workspace",
		IsActive: utils.NewFalse(),
	}
}

func (r Report) GetId() int {
	return r.ID
}

func (r Report) GetDefault(id int) Data {
	return Report{ID: id}
}

func (b Billing) GetId() int {
	return b.ID
}

func (b Billing) GetDefault(id int) Data {
	return Billing{ID: id}
}

func (c Cost) GetId() int {
	return c.ID
}

func (c Cost) GetDefault(id int) Data {
	return Cost{ID: id}
}
