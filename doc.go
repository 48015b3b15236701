// Package contractsteps provides step definitions for github.com/cucumber/godog to check
// contract of user creation HTTP endpoint.
//
//		Feature: Users
//
//		 Scenario: Successful user creation
//		   Given scenario property "reqresin.address" is "localhost:8080"
//		   And scenario property "token" is "Bearer abc"
//
//		   Then Create user with name=Alice, job=Engineer and check response="name":"Alice"
//		   And Create user with name=Alice, job=Engineer and check response!=Bob
//		   And Create user with request={"name":"X"} and check response=X
package contractsteps
