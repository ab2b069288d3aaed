// Package crud provides the Create, Read, Update, Delete and List endpoint
// templates.
//
// Each template derives its request and response schema from a Meta model
// description and runs a fixed hook sequence against a backend:
//
//	Create: BeforeCreate, Create, AfterCreate
//	Read:   BeforeFetch, Fetch, AfterFetch
//	Update: GetObject, BeforeUpdate, Update, AfterUpdate
//	Delete: GetObject, BeforeDelete, Delete, AfterDelete
//	List:   BeforeList, List, AfterList
//
// Backends embed Hooks and override the hooks they implement. A missing
// record is reported with a nil Record, which the template answers with a
// 404. Backend failures should be returned as *exceptions.Exception so no
// raw driver message reaches the client.
package crud
