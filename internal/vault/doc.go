// Package vault defines the kakadu data model and its on-disk JSON document.
//
// A vault holds groups and records in one shared id space. Ids are allocated
// as max(existing)+1; a fresh vault starts with a single root group (id 1,
// pid 0). Parent references are not checked, so orphans are allowed.
//
// The document shape, field names and the uppercase symbol strings are part
// of the file format and must not change:
//
//	{"groups":[{"id":1,"pid":0,"name":"NewDatabase"}],
//	 "records":[{"id":2,"pid":1,"name":"","login":"","password":"","url":"",
//	             "loginSymbol":"TAB","passwordSymbol":"ENTER","urlSymbol":"NONE"}]}
package vault
