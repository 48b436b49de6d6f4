package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampusRef_AdminHasNone(t *testing.T) {
	u := &User{ID: 1, Role: RoleAdmin}
	assert.Nil(t, u.CampusRef())
}

func TestCampusRef_CarriesLoadedName(t *testing.T) {
	campusID := uint(3)
	campus := Campus{ID: 3, Name: "Campus Norte"}
	u := &User{ID: 2, Role: RoleTecnico, CampusID: &campusID, Campus: &campus}

	ref := u.CampusRef()
	assert.NotNil(t, ref)
	assert.Equal(t, campus.Ref(), *ref)

	resp := u.ToResponse()
	assert.Equal(t, "Campus Norte", resp.CampusName)
}

func TestCampusRef_UnloadedAssociationKeepsID(t *testing.T) {
	campusID := uint(3)
	u := &User{ID: 2, Role: RoleTecnico, CampusID: &campusID}

	ref := u.CampusRef()
	assert.NotNil(t, ref)
	assert.Equal(t, uint(3), ref.ID)
	assert.Empty(t, ref.Name)
}
