// Package mocks provides shared test doubles for the store interfaces.
//
// Each mock keeps its data in plain maps or slices guarded by a mutex, so the
// same value can be used from concurrent tests. Function fields override the
// default behaviour of a method, and the Err fields force failures:
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.Add(domain.ManagedTask{ID: uuid.New(), ManagerID: userID})
//	tasks.StatsErr = errors.New("connection refused")
package mocks
