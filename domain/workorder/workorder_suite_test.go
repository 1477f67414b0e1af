package workorder_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestWorkOrder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Work Order Suite")
}
